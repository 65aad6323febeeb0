package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/database/postgres"
	"github.com/sagarc03/duplo/database/sqlite"
)

// Config holds the configuration for connecting to a journal backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string
	// DSN is the data source name (connection string)
	DSN string
	// Tables holds the journal table names
	Tables duplo.Tables
}

// Database is a journal backend connection.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetJournal() duplo.Journal
	Close() error
}

// Connect opens the configured backend. It neither migrates nor validates;
// callers decide whether to run Migrate before Validate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}

	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects, optionally migrates, validates the schema, and returns the
// journal. The returned cleanup function closes the connection.
func Open(ctx context.Context, cfg Config, autoMigrate bool) (duplo.Journal, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if autoMigrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetJournal(), cleanup, nil
}
