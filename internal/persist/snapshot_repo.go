package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SnapshotRow is one persisted full-state snapshot.
type SnapshotRow struct {
	Frame     int64
	StateHash int64 // xxhash stored as the signed bit pattern
	State     []byte
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save upserts a snapshot keyed by frame.
func (r *SnapshotRepo) Save(ctx context.Context, s SnapshotRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO snapshots (frame, state_hash, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (frame) DO UPDATE SET state_hash = $2, state = $3`,
		s.Frame, s.StateHash, s.State,
	)
	if err != nil {
		return fmt.Errorf("snapshot save: %w", err)
	}
	return nil
}

// LoadLatest returns the newest snapshot, or nil when none exists.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (*SnapshotRow, error) {
	row := &SnapshotRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT frame, state_hash, state FROM snapshots ORDER BY frame DESC LIMIT 1`,
	).Scan(&row.Frame, &row.StateHash, &row.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot load: %w", err)
	}
	return row, nil
}

// PruneOld keeps the newest keep snapshots and deletes the rest.
func (r *SnapshotRepo) PruneOld(ctx context.Context, keep int) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM snapshots WHERE frame NOT IN
		   (SELECT frame FROM snapshots ORDER BY frame DESC LIMIT $1)`, keep,
	)
	return err
}
