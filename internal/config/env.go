package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "WELLFORMED_"

// defaultEnvFile is loaded when no env file is named and it exists.
const defaultEnvFile = ".env"

// ApplyEnv loads envFile (or ./.env when envFile is empty) into the process
// environment without overriding variables that are already set, then
// applies every WELLFORMED_* variable to m.
func ApplyEnv(m *Model, envFile string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	var o Overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}
	o.Apply(m)
	return nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	// The default file is optional.
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", defaultEnvFile, err)
	}
	return nil
}
