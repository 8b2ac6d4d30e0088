package app

import (
	"fmt"
	"os"

	"github.com/vk/wellformed/internal/config"
)

// Config holds what the command line contributes to a run.
type Config struct {
	ConfigPath string // hcl file or directory, optional
	InputPath  string // "" or "-" reads the App's input stream
	EnvFile    string

	// Overrides carries the flags that were set explicitly.
	Overrides config.Overrides
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return nil, fmt.Errorf("config path %s: %w", cfg.ConfigPath, err)
		}
	}
	if cfg.InputPath != "" && cfg.InputPath != "-" {
		if _, err := os.Stat(cfg.InputPath); err != nil {
			return nil, fmt.Errorf("input path %s: %w", cfg.InputPath, err)
		}
	}
	return &cfg, nil
}
