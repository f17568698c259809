package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackline/pipeline/internal/models"
)

// schemaSQL is embedded so the processor can self-bootstrap its table
// and indexes on startup.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable persistence layer for tracking events.
// The pool is safe for concurrent use; the events API shares one store
// across requests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the
// database is unreachable. Callers that must tolerate a booting
// database wrap this in a retry policy.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// InsertEvent persists an event and returns inserted=false when the
// event_id already exists. Duplicate delivery is absorbed by the
// primary-key conflict clause, which is what makes at-least-once
// redelivery safe.
func (p *PostgresStore) InsertEvent(ctx context.Context, row models.EventRow) (bool, error) {
	// RETURNING 1 only when inserted; a conflict returns no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO user_events (
			event_id, event_type, location_type, component_name,
			page_path, page_title, timestamp, user_metadata, full_event_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING 1
	`,
		row.EventID,
		row.EventType,
		row.LocationType,
		row.ComponentName,
		row.PagePath,
		row.PageTitle,
		row.Timestamp,
		row.UserMetadata,
		row.FullEventData,
	).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("insert event %s: %w", row.EventID, err)
}

// QueryEvents returns events matching the filter, newest first, capped
// at the filter's limit.
func (p *PostgresStore) QueryEvents(ctx context.Context, f Filter) ([]models.EventRecord, error) {
	sql, args := f.buildQuery()

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := make([]models.EventRecord, 0, DefaultLimit)
	for rows.Next() {
		var rec models.EventRecord
		if err := rows.Scan(
			&rec.EventID,
			&rec.EventType,
			&rec.LocationType,
			&rec.ComponentName,
			&rec.PagePath,
			&rec.PageTitle,
			&rec.Timestamp,
			&rec.UserMetadata,
			&rec.FullEventData,
			&rec.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	return records, nil
}
