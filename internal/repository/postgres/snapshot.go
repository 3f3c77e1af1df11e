package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/echohub/internal/repository"
	"github.com/lalith-99/echohub/internal/store"
)

// snapshotRowID is the primary key of the single snapshot row.
const snapshotRowID = 1

// SnapshotStore keeps the workspace as one jsonb row in
// workspace_snapshots.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// EnsureSchema creates the snapshot table if it is missing.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS workspace_snapshots (
			id       integer PRIMARY KEY,
			body     jsonb NOT NULL,
			saved_at timestamptz NOT NULL DEFAULT now()
		)`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (*store.Snapshot, error) {
	query := `
		SELECT body
		FROM workspace_snapshots
		WHERE id = $1`

	var body []byte
	err := s.pool.QueryRow(ctx, query, snapshotRowID).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return repository.Decode(body)
}

func (s *SnapshotStore) Save(ctx context.Context, snap *store.Snapshot) error {
	body, err := repository.Encode(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workspace_snapshots (id, body, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET body = EXCLUDED.body, saved_at = EXCLUDED.saved_at`

	if _, err := s.pool.Exec(ctx, query, snapshotRowID, body); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; the pool belongs to db.DB.
func (s *SnapshotStore) Close() error { return nil }
