package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultPublishEvent   = "verdict"
	DefaultPublishNS      = "/"
	DefaultPublishTimeout = "10s"
)

// Model is the unified configuration of a validation run.
type Model struct {
	// Workers caps the number of validations in flight. 0 means no cap.
	Workers int
	// Ordered makes output follow input order instead of completion order.
	Ordered bool
	// Explain logs every rule violation at debug level.
	Explain         bool
	LogLevel        string
	LogFormat       string
	HealthcheckPort int
	// Publish is nil unless verdicts should also go to a socket.io server.
	Publish *Publish
}

// Publish configures the socket.io verdict publisher.
type Publish struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	Timeout            string
	// Metadata is merged into every published payload.
	Metadata map[string]any
}

// Defaults returns the configuration used when nothing else is given.
func Defaults() *Model {
	return &Model{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// DefaultPublish returns a publisher configuration for url.
func DefaultPublish(url string) *Publish {
	return &Publish{
		URL:       url,
		Namespace: DefaultPublishNS,
		Event:     DefaultPublishEvent,
		Timeout:   DefaultPublishTimeout,
	}
}

// ConnectTimeout parses Timeout. Validate guarantees it succeeds.
func (p *Publish) ConnectTimeout() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks every field and reports all problems at once.
func (m *Model) Validate() error {
	var errs []error

	if m.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", m.Workers))
	}
	switch m.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level must be 'debug', 'info', 'warn', or 'error', got %q", m.LogLevel))
	}
	switch m.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be 'text' or 'json', got %q", m.LogFormat))
	}
	if m.HealthcheckPort < 0 || m.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port out of range: %d", m.HealthcheckPort))
	}
	if m.Publish != nil {
		errs = append(errs, m.Publish.validate()...)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (p *Publish) validate() []error {
	var errs []error
	u, err := url.Parse(p.URL)
	switch {
	case p.URL == "":
		errs = append(errs, errors.New("publish url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("publish url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("publish url scheme must be http, https, ws or wss, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("publish url has no host"))
	}
	if p.Event == "" {
		errs = append(errs, errors.New("publish event must not be empty"))
	}
	if d, err := time.ParseDuration(p.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("publish timeout must be a positive duration, got %q", p.Timeout))
	}
	return errs
}
