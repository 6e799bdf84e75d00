package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, EngineMemory, cfg.Engine)
}

func TestConfig_ValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "unknown engine", cfg: Config{Engine: "kafka"}, want: ErrUnknownEngine},
		{name: "redis without url", cfg: Config{Engine: "redis"}, want: ErrMissingDSN},
		{name: "sqlite without path", cfg: Config{Engine: "SQLite"}, want: ErrMissingDSN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		engine, err := Open(ctx, Config{})
		require.NoError(t, err)
		assert.IsType(t, &MemoryEngine{}, engine)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		engine, err := Open(ctx, Config{Engine: EngineRedis, RedisURL: "redis://" + mr.Addr()})
		require.NoError(t, err)
		defer engine.Close(ctx)
		assert.IsType(t, &RedisEngine{}, engine)
	})

	t.Run("sqlite", func(t *testing.T) {
		engine, err := Open(ctx, Config{Engine: EngineSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")})
		require.NoError(t, err)
		defer engine.Close(ctx)
		assert.IsType(t, &SQLiteEngine{}, engine)
	})
}
