package app

import (
	"errors"
	"fmt"
)

// Execution modes.
const (
	// ModePull pulls the sinks, executing everything upstream of them.
	ModePull = "pull"
	// ModePush schedules the sources with auto-propagation and waits until
	// the cascade has drained.
	ModePush = "push"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl file or directory
	Vars         map[string]string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	MaxThreads int
	Mode       string
	Rebalance  bool
	Iterations int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	switch cfg.Mode {
	case "":
		cfg.Mode = ModePull
	case ModePull, ModePush:
	default:
		return nil, fmt.Errorf("invalid mode %q: must be '%s' or '%s'", cfg.Mode, ModePull, ModePush)
	}
	if cfg.MaxThreads < 0 {
		return nil, fmt.Errorf("invalid max-threads %d: must not be negative", cfg.MaxThreads)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("invalid iterations %d: must not be negative", cfg.Iterations)
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = 1
	}
	return &cfg, nil
}
