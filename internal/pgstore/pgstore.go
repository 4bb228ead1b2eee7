// Package pgstore persists provider snapshots in PostgreSQL.
//
// It implements directory.SnapshotStore as the durable second cache tier:
// a single keyed row holding the last successfully fetched provider list
// and its fetch timestamp. Freshness is judged by the reader, so a stale
// row stays available as a fallback until the next successful fetch
// overwrites it.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/localwise/directory/internal/directory"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// snapshotKey identifies the single directory snapshot row.
const snapshotKey = "providers"

// SnapshotStore is a PostgreSQL-backed directory.SnapshotStore.
type SnapshotStore struct {
	db DBTX
}

// New creates a SnapshotStore on top of an existing connection pool.
func New(db DBTX) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Init creates the snapshot table if it does not exist.
// Call once at startup before serving traffic.
func (s *SnapshotStore) Init(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS provider_snapshots (
			key        TEXT PRIMARY KEY,
			id         UUID NOT NULL,
			data       JSONB NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL
		)`
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create provider_snapshots table: %w", err)
	}
	return nil
}

// Save upserts the snapshot row. Each save gets a fresh id so overwrites
// are distinguishable in the database log.
func (s *SnapshotStore) Save(ctx context.Context, snap directory.Snapshot) error {
	data, err := json.Marshal(snap.Records)
	if err != nil {
		return fmt.Errorf("marshal snapshot records: %w", err)
	}

	const upsert = `
		INSERT INTO provider_snapshots (key, id, data, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET id = EXCLUDED.id, data = EXCLUDED.data, fetched_at = EXCLUDED.fetched_at`
	if _, err := s.db.Exec(ctx, upsert, snapshotKey, uuid.New(), data, snap.FetchedAt); err != nil {
		return fmt.Errorf("upsert provider snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row. Returns (nil, nil) when none has been saved.
func (s *SnapshotStore) Load(ctx context.Context) (*directory.Snapshot, error) {
	const query = `SELECT data, fetched_at FROM provider_snapshots WHERE key = $1`

	var (
		data []byte
		snap directory.Snapshot
	)
	err := s.db.QueryRow(ctx, query, snapshotKey).Scan(&data, &snap.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load provider snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap.Records); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot records: %w", err)
	}
	return &snap, nil
}
