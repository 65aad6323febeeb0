// Package postgres implements the operation journal using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/duplo"
)

type Journal struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewJournal(pool *pgxpool.Pool, tables duplo.Tables) (*Journal, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new journal: %w", err)
	}

	return &Journal{pool: pool, tableName: tables.Events}, nil
}

// Ping verifies database connectivity
func (j *Journal) Ping(ctx context.Context) error {
	return j.pool.Ping(ctx)
}

func (j *Journal) Record(ctx context.Context, e duplo.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, pool, action, name, size, result, remote, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pgx.Identifier{j.tableName}.Sanitize())

	_, err := j.pool.Exec(ctx, query,
		e.ID, e.Pool, e.Action, e.Name, e.Size, e.Result, e.Remote, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (j *Journal) Recent(ctx context.Context, pool string, limit int) ([]duplo.Event, error) {
	if limit <= 0 {
		return []duplo.Event{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, pool, action, name, size, result, remote, created_at
		FROM %s
		WHERE pool = $1
		ORDER BY seq DESC
		LIMIT $2
	`, pgx.Identifier{j.tableName}.Sanitize())

	rows, err := j.pool.Query(ctx, query, pool, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	events := []duplo.Event{}
	for rows.Next() {
		var e duplo.Event
		if err := rows.Scan(&e.ID, &e.Pool, &e.Action, &e.Name, &e.Size, &e.Result, &e.Remote, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("recent: scan: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent: rows: %w", err)
	}

	return events, nil
}
