package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/soaringjerry/stackit/internal/db"
	"github.com/soaringjerry/stackit/internal/services"
)

type keyedStore interface {
	services.BlobStore
	Keys(ctx context.Context) ([]string, error)
}

type blobStore interface {
	keyedStore
	io.Closer
}

// openBlobStore selects the backend named by cfg.Store.
func openBlobStore(cfg Config, logger *slog.Logger) (blobStore, error) {
	switch cfg.Store {
	case StoreMemory:
		logger.Warn("memory store selected, data is lost on exit")
		return db.NewMemoryStore(), nil
	case StoreSQLite:
		s, err := db.OpenSQLite(cfg.SQLitePath, cfg.MigrationsDir, logger.With("store", "sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case StoreBadger:
		bcfg := db.DefaultBadgerConfig(cfg.BadgerPath)
		bcfg.Logger = logger.With("store", "badger")
		s, err := db.OpenBadger(bcfg)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
