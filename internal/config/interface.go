package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, applies it on top of
	// Defaults and returns the result. Paths that do not exist are skipped.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
