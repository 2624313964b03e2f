package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

// Driver identifies a storage backend.
type Driver string

const (
	DriverCSV      Driver = "csv"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects and configures the storage backend.
type Config struct {
	Driver Driver

	// Path is the data file location for the csv and sqlite drivers.
	Path string

	// DSN is the PostgreSQL connection string for the postgres driver.
	DSN string

	// MigrationsURL points golang-migrate at the migration files,
	// e.g. "file://migrations/sqlite". Ignored by the csv driver.
	MigrationsURL string
}

// Store is a durable schedule store with a lifecycle.
type Store interface {
	reminder.Store
	Close() error
}

// Open creates the store selected by cfg.Driver and runs its migrations.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Driver {
	case DriverCSV, "":
		if cfg.Path == "" {
			return nil, shared.MarkKind(errors.New("store: csv driver requires a path"), shared.KindValidation)
		}
		return NewCSVStore(cfg.Path, log)
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, shared.MarkKind(errors.New("store: sqlite driver requires a path"), shared.KindValidation)
		}
		return NewSQLiteStore(ctx, cfg.Path, cfg.MigrationsURL, log)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, shared.MarkKind(errors.New("store: postgres driver requires a DSN"), shared.KindValidation)
		}
		return NewPostgresStore(ctx, cfg.DSN, cfg.MigrationsURL, log)
	default:
		return nil, shared.MarkKind(fmt.Errorf("store: unknown driver %q", cfg.Driver), shared.KindValidation)
	}
}
