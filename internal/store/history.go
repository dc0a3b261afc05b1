package store

import (
	"context"
	"fmt"
)

// HistoryEntry records one confirmed berth exit. Immutable once written.
type HistoryEntry struct {
	ID         int64
	TrainID    string
	BerthID    int64
	RecordedAt int64
}

// AppendHistory appends an exit record. Only callable inside a
// transaction so the entry commits together with the train mutation that
// produced it.
func (t *Tx) AppendHistory(ctx context.Context, trainID string, berthID, recordedAt int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO history (train_id, berth_id, recorded_at)
		VALUES (?, ?, ?)
	`, trainID, berthID, recordedAt)
	if err != nil {
		return fmt.Errorf("append history for train %s: %w", trainID, err)
	}
	return nil
}

// History returns the exit trail for an episode, oldest first.
func (s *Store) History(ctx context.Context, trainID string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, train_id, berth_id, recorded_at
		FROM history
		WHERE train_id = ?
		ORDER BY id ASC
	`, trainID)
	if err != nil {
		return nil, fmt.Errorf("query history for train %s: %w", trainID, err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.TrainID, &e.BerthID, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
