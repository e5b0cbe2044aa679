package persist

import (
	"context"
	"fmt"
)

// JournalEntry is one applied command as persisted: the frame it was
// folded into, its apply order within that frame, and the canonical
// packetized payload (discriminator + command encoding).
type JournalEntry struct {
	Frame         int64
	Player        int32
	ApplyOrder    int32
	Authoritative bool
	Payload       []byte
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append atomically writes a batch of journal entries in a single
// transaction. Entries for one frame must be written together so a
// restore never sees a half-persisted frame.
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO command_journal (frame, player, apply_order, authoritative, payload)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.Frame, e.Player, e.ApplyOrder, e.Authoritative, e.Payload,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadAfter returns all entries with frame > afterFrame, ordered by
// frame then apply order. Used to catch a restored snapshot up.
func (r *JournalRepo) LoadAfter(ctx context.Context, afterFrame int64) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT frame, player, apply_order, authoritative, payload
		 FROM command_journal WHERE frame > $1
		 ORDER BY frame, apply_order`, afterFrame,
	)
	if err != nil {
		return nil, fmt.Errorf("journal load: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.Frame, &e.Player, &e.ApplyOrder, &e.Authoritative, &e.Payload); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneBefore deletes entries already covered by a persisted snapshot.
func (r *JournalRepo) PruneBefore(ctx context.Context, frame int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM command_journal WHERE frame <= $1`, frame,
	)
	return err
}
