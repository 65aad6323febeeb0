// Package sqlite implements the operation journal using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/duplo"
)

type journal struct {
	db        *sql.DB
	tableName string
}

// NewJournal returns a Journal writing to an already migrated events table.
func NewJournal(db *sql.DB, tables duplo.Tables) (duplo.Journal, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new journal: %w", err)
	}

	return &journal{db: db, tableName: tables.Events}, nil
}

func (j *journal) Record(ctx context.Context, e duplo.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, pool, action, name, size, result, remote, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(j.tableName))

	_, err := j.db.ExecContext(ctx, query,
		e.ID.String(), e.Pool, e.Action, e.Name, e.Size, e.Result, e.Remote,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (j *journal) Recent(ctx context.Context, pool string, limit int) ([]duplo.Event, error) {
	if limit <= 0 {
		return []duplo.Event{}, nil
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, pool, action, name, size, result, remote, created_at
		FROM %s
		WHERE pool = ?
		ORDER BY seq DESC
		LIMIT ?`, quoteIdentifier(j.tableName))

	rows, err := j.db.QueryContext(ctx, query, pool, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []duplo.Event{}
	for rows.Next() {
		var e duplo.Event
		var idStr, createdAt string

		if err := rows.Scan(&idStr, &e.Pool, &e.Action, &e.Name, &e.Size, &e.Result, &e.Remote, &createdAt); err != nil {
			return nil, fmt.Errorf("recent: scan: %w", err)
		}

		e.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("recent: parse uuid: %w", err)
		}

		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("recent: parse created_at: %w", err)
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent: rows: %w", err)
	}

	return events, nil
}
