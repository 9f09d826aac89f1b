package main

import (
	"fmt"

	"github.com/cuemby/moai-flow-core/pkg/config"
	"github.com/cuemby/moai-flow-core/pkg/storage"
	"github.com/cuemby/moai-flow-core/pkg/swarm"
)

// loadConfig resolves the effective config for this invocation: defaults,
// overlaid with --config if given, then with --data-dir if given.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.StorageRoot = dataDir
	}
	return cfg, nil
}

// openCoordinator builds a BoltStore at cfg.StorageRoot and the Coordinator
// over it. Callers must Close() the returned store when done.
func openCoordinator(cfg config.Config) (*swarm.Coordinator, storage.Store, error) {
	store, err := storage.NewBoltStore(cfg.StorageRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage at %s: %w", cfg.StorageRoot, err)
	}
	coord, err := swarm.New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return coord, store, nil
}
