// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: read the batch, dispatch
// the validations, and route verdicts to the configured sinks. It is
// decoupled from any specific entrypoint like a CLI.
package app
