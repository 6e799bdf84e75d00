package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/deq"
	"github.com/GoCodeAlone/deq/feeders"
	"github.com/GoCodeAlone/deq/persist"
	"github.com/GoCodeAlone/deq/storage"
)

// loadConfig feeds the optional config file and then the DEQ_ environment.
func loadConfig(path string) (*deq.Config, error) {
	fs := make([]feeders.Feeder, 0, 2)
	if path != "" {
		f, err := fileFeeder(path)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	fs = append(fs, feeders.NewEnvFeeder())

	cfg := &deq.Config{}
	if err := deq.LoadConfig(cfg, fs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fileFeeder(path string) (feeders.Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(path), nil
	case ".toml":
		return feeders.NewTomlFeeder(path), nil
	case ".json":
		return feeders.NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, filepath.Ext(path))
	}
}

// openStore opens the configured engine and the property store of queue.
// The caller closes the returned engine.
func openStore(ctx context.Context, opts *globalOptions, logger deq.Logger) (*persist.PropertyStore, storage.Engine, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	engine, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	storeOpts := append(cfg.StoreOptions(), persist.WithLogger(logger))
	store, err := persist.NewPropertyStore(opts.queue, engine, storeOpts...)
	if err != nil {
		_ = engine.Close(ctx)
		return nil, nil, err
	}
	return store, engine, nil
}
