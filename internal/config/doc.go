// Package config defines the format-agnostic run configuration, along with
// the Loader interface implemented by file-format packages and the layers
// applied on top of a loaded file: environment variables and explicitly set
// command-line flags.
//
// Precedence, lowest first: Defaults, config files, environment, flags.
package config
