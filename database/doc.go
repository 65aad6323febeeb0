// Package database connects the operation journal to a SQL backend.
//
// The journal is an append-only history of pool operations (uploads, shared
// texts, removals and expiry sweeps). It is never consulted for listings or
// quotas; the pool directories remain the only source of truth for those.
//
// # Supported Backends
//
//   - PostgreSQL: using a pgx connection pool
//   - SQLite: using modernc.org/sqlite, suitable for single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "duplo.db",
//	    Tables: duplo.Tables{Events: "duplo_events"},
//	}
//
//	journal, cleanup, err := database.Open(ctx, cfg, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Connect only opens the backend and returns a Database; Open additionally
// pings it, optionally runs migrations, validates the schema and returns the
// ready-to-use duplo.Journal.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
