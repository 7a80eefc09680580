package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every pipeline file found under paths and merges them into a
	// single Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
