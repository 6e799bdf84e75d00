package deq

import (
	"context"
	"fmt"
	"time"

	"github.com/GoCodeAlone/deq/feeders"
	"github.com/GoCodeAlone/deq/persist"
	"github.com/GoCodeAlone/deq/storage"
)

// Config configures property persistence for a Registry.
//
// Example YAML configuration:
//
//	keyPrefix: "deq_pers_"
//	lastingLifetime: "17520h"
//	store:
//	  engine: "sqlite"
//	  sqlitePath: "/var/lib/deq/props.db"
type Config struct {
	// KeyPrefix is prepended to every backend key.
	// Default: "deq_pers_"
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix" toml:"keyPrefix" env:"KEY_PREFIX"`

	// LastingLifetime is the backend lifetime of the durable tier.
	// Default: 2 years
	LastingLifetime time.Duration `json:"lastingLifetime" yaml:"lastingLifetime" toml:"lastingLifetime" env:"LASTING_LIFETIME"`

	// Store selects the backend engine.
	Store storage.Config `json:"store" yaml:"store" toml:"store" envPrefix:"STORE_"`
}

// Validate fills defaults and checks the configuration
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = persist.DefaultKeyPrefix
	}
	if c.LastingLifetime == 0 {
		c.LastingLifetime = persist.DefaultLastingLifetime
	}
	if c.LastingLifetime < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLifetime, c.LastingLifetime)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	return nil
}

// StoreOptions returns the persist options the configuration implies
func (c *Config) StoreOptions() []persist.Option {
	return []persist.Option{
		persist.WithKeyPrefix(c.KeyPrefix),
		persist.WithLastingLifetime(c.LastingLifetime),
	}
}

// LoadConfig applies feeders to cfg in order, later feeders winning, and
// validates the result.
func LoadConfig(cfg *Config, fs ...feeders.Feeder) error {
	if cfg == nil {
		return ErrConfigNil
	}
	for _, f := range fs {
		if err := f.Feed(cfg); err != nil {
			return fmt.Errorf("%w: %T: %w", ErrConfigFeeder, f, err)
		}
	}
	return cfg.Validate()
}

// OpenRegistry validates cfg, opens its storage engine and returns a registry
// whose queues persist properties into it. The engine is returned so the
// caller can close it.
func OpenRegistry(ctx context.Context, cfg *Config, opts ...RegistryOption) (*Registry, storage.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	engine, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Engine, err)
	}
	opts = append([]RegistryOption{WithBackend(engine, cfg.StoreOptions()...)}, opts...)
	return NewRegistry(opts...), engine, nil
}
