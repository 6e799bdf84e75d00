package storage

import (
	"context"
	"fmt"
	"strings"
)

// Engine names accepted by Open
const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
	EngineSQLite = "sqlite"
)

// Config selects and configures a storage engine.
//
// Example YAML configuration:
//
//	store:
//	  engine: "redis"
//	  redisURL: "redis://localhost:6379/0"
type Config struct {
	// Engine specifies the storage engine to use.
	// Supported values: "memory", "redis", "sqlite"
	// Default: "memory"
	Engine string `json:"engine" yaml:"engine" toml:"engine" env:"ENGINE"`

	// RedisURL is the connection URL for the Redis engine.
	// Format: redis://[username:password@]host:port[/database]
	RedisURL string `json:"redisURL" yaml:"redisURL" toml:"redisURL" env:"REDIS_URL"`

	// RedisPassword overrides the password in RedisURL when set.
	RedisPassword string `json:"redisPassword" yaml:"redisPassword" toml:"redisPassword" env:"REDIS_PASSWORD"`

	// RedisDB overrides the database number in RedisURL when non-zero.
	RedisDB int `json:"redisDB" yaml:"redisDB" toml:"redisDB" env:"REDIS_DB"`

	// SQLitePath is the database file for the SQLite engine.
	SQLitePath string `json:"sqlitePath" yaml:"sqlitePath" toml:"sqlitePath" env:"SQLITE_PATH"`
}

// Validate fills defaults and checks the engine name
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = EngineMemory
	}

	switch c.Engine {
	case EngineMemory:
		return nil
	case EngineRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%s: %w", c.Engine, ErrMissingDSN)
		}
		return nil
	case EngineSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%s: %w", c.Engine, ErrMissingDSN)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, c.Engine)
	}
}

// Open creates the engine described by cfg
func Open(ctx context.Context, cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case EngineRedis:
		return NewRedisEngine(ctx, RedisConfig{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case EngineSQLite:
		return NewSQLiteEngine(ctx, cfg.SQLitePath)
	default:
		return NewMemoryEngine(), nil
	}
}
