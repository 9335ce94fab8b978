package pool

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/jzx17/seqpool/pkg/types"
)

// Config defines configuration for the execution pool
type Config struct {
	// Workers is the number of worker goroutines applying the user function
	Workers int `env:"WORKERS" envDefault:"4"`

	// Name identifies the pool in log records
	Name string `env:"NAME" envDefault:"seqpool"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers: 4,
		Name:    "seqpool",
	}
}

// LoadConfig reads the configuration from environment variables carrying
// prefix, e.g. SEQPOOL_WORKERS with prefix "SEQPOOL_"
func LoadConfig(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d: %w", c.Workers, types.ErrInvalidInput)
	}
	return nil
}
