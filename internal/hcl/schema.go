package hcl

import "github.com/zclconf/go-cty/cty"

// fileRoot is used to decode the top-level blocks of every file.
type fileRoot struct {
	Run     *runBlock     `hcl:"run,block"`
	Publish *publishBlock `hcl:"publish,block"`
}

// runBlock mirrors config.Model. Pointers distinguish unset from zero.
type runBlock struct {
	Workers         *int    `hcl:"workers,optional"`
	Ordered         *bool   `hcl:"ordered,optional"`
	Explain         *bool   `hcl:"explain,optional"`
	LogLevel        *string `hcl:"log_level,optional"`
	LogFormat       *string `hcl:"log_format,optional"`
	HealthcheckPort *int    `hcl:"healthcheck_port,optional"`
}

type publishBlock struct {
	URL                string    `hcl:"url"`
	Namespace          *string   `hcl:"namespace,optional"`
	Event              *string   `hcl:"event,optional"`
	InsecureSkipVerify *bool     `hcl:"insecure_skip_verify,optional"`
	Timeout            *string   `hcl:"timeout,optional"`
	Metadata           cty.Value `hcl:"metadata,optional"`
}
