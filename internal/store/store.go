// Package store selects and decorates the resource store backend.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/resourcevault/internal/config"
	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/store/memory"
	"github.com/JonMunkholm/resourcevault/internal/store/postgres"
	"github.com/JonMunkholm/resourcevault/internal/store/sqlite"
)

// Open builds the store named by cfg.Database.Driver, wrapped in a circuit
// breaker when enabled.
func Open(ctx context.Context, cfg *config.Config) (core.ResourceStore, error) {
	var (
		s   core.ResourceStore
		err error
	)

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		s, err = sqlite.Open(ctx, cfg.Database.URL, cfg.Import.BatchSize)
	case config.DriverPostgres:
		s, err = postgres.Open(ctx, cfg.Database, cfg.Import.BatchSize)
	case config.DriverMemory:
		s = memory.New()
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.BreakerEnabled {
		s = WithCircuitBreaker(s, BreakerConfig{
			Name:        "resource-store-" + cfg.Database.Driver,
			MaxFailures: uint32(cfg.Database.BreakerMaxFailures),
			OpenTimeout: cfg.Database.BreakerOpenTimeout,
		})
	}
	return s, nil
}
