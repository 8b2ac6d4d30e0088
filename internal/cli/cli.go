package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/wellformed/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("wellformed", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
wellformed - checks batches of bracket sequences concurrently.

Usage:
  wellformed [options] [INPUT_PATH]

Input (stdin unless INPUT_PATH or -input is given):
  line 1   number of cases
  line 2   number of samples per case
  then     cases*samples strings, one per line

Output:
  one "index:true|false" line per string, in completion order unless -ordered.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL config file or directory.")
	inputFlag := flagSet.String("input", "", "Path to the input batch. Defaults to stdin.")
	iFlag := flagSet.String("i", "", "Path to the input batch (shorthand).")
	envFileFlag := flagSet.String("env-file", "", "Path to a .env file loaded before reading WELLFORMED_* variables.")
	workersFlag := flagSet.Int("workers", 0, "Maximum validations in flight. 0 runs every string at once.")
	orderedFlag := flagSet.Bool("ordered", false, "Emit verdicts in input order instead of completion order.")
	explainFlag := flagSet.Bool("explain", false, "Log every rule violation at debug level.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	publishURLFlag := flagSet.String("publish-url", "", "Socket.io server that also receives every verdict.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("expected at most one input path, got %d", flagSet.NArg())}
	}

	input := ""
	if *inputFlag != "" {
		input = *inputFlag
	} else if *iFlag != "" {
		input = *iFlag
	} else if flagSet.NArg() == 1 {
		input = flagSet.Arg(0)
	}

	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := app.Config{
		ConfigPath: *configFlag,
		InputPath:  input,
		EnvFile:    *envFileFlag,
	}

	if set["log-format"] {
		logFormat := strings.ToLower(*logFormatFlag)
		if logFormat != "text" && logFormat != "json" {
			return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
		cfg.Overrides.LogFormat = &logFormat
	}
	if set["log-level"] {
		logLevel := strings.ToLower(*logLevelFlag)
		switch logLevel {
		case "debug", "info", "warn", "error":
		default:
			return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
		}
		cfg.Overrides.LogLevel = &logLevel
	}
	if set["workers"] {
		if *workersFlag < 0 {
			return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
		}
		cfg.Overrides.Workers = workersFlag
	}
	if set["ordered"] {
		cfg.Overrides.Ordered = orderedFlag
	}
	if set["explain"] {
		cfg.Overrides.Explain = explainFlag
	}
	if set["healthcheck-port"] {
		cfg.Overrides.HealthcheckPort = healthPortFlag
	}
	if set["publish-url"] {
		cfg.Overrides.PublishURL = publishURLFlag
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
