package config

// Overrides holds values set from outside the config file. A nil field means
// "not set" and leaves the model untouched.
type Overrides struct {
	Workers         *int    `env:"WORKERS"`
	Ordered         *bool   `env:"ORDERED"`
	Explain         *bool   `env:"EXPLAIN"`
	LogLevel        *string `env:"LOG_LEVEL"`
	LogFormat       *string `env:"LOG_FORMAT"`
	HealthcheckPort *int    `env:"HEALTHCHECK_PORT"`
	PublishURL      *string `env:"PUBLISH_URL"`
	PublishEvent    *string `env:"PUBLISH_EVENT"`
}

// Apply copies every set field onto m. Setting a publish field on a model
// without a publisher creates one with default settings.
func (o Overrides) Apply(m *Model) {
	if o.Workers != nil {
		m.Workers = *o.Workers
	}
	if o.Ordered != nil {
		m.Ordered = *o.Ordered
	}
	if o.Explain != nil {
		m.Explain = *o.Explain
	}
	if o.LogLevel != nil {
		m.LogLevel = *o.LogLevel
	}
	if o.LogFormat != nil {
		m.LogFormat = *o.LogFormat
	}
	if o.HealthcheckPort != nil {
		m.HealthcheckPort = *o.HealthcheckPort
	}
	if o.PublishURL != nil {
		if m.Publish == nil {
			m.Publish = DefaultPublish(*o.PublishURL)
		}
		m.Publish.URL = *o.PublishURL
	}
	if o.PublishEvent != nil {
		if m.Publish == nil {
			m.Publish = DefaultPublish("")
		}
		m.Publish.Event = *o.PublishEvent
	}
}
