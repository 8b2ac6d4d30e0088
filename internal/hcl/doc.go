// Package hcl provides the HCL implementation of config.Loader. It parses
// `run` and `publish` blocks, evaluates their expressions against an `env`
// variable holding the process environment, and folds the result onto
// config.Defaults.
package hcl
