package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Train is one occupancy episode. Area and code identify the train only
// while the episode is open; area changes when the train crosses a border.
// LastSeen is epoch milliseconds from the originating event.
type Train struct {
	ID        string
	Area      string
	Code      string
	BerthID   int64
	Active    bool
	Cancelled bool
	LastSeen  int64
}

// TrainPosition is the projection row served by the query API: a
// non-cancelled train joined onto its berth's surveyed position.
type TrainPosition struct {
	ID        string
	Code      string
	Latitude  float64
	Longitude float64
	LastSeen  int64
}

// ActiveTrain finds the open (non-cancelled) episode for (area, code).
// At most one such row exists at a time.
func (s *Store) ActiveTrain(ctx context.Context, area, code string) (Train, bool, error) {
	return activeTrain(ctx, s.db, area, code)
}

// ActiveTrain is the transactional variant of Store.ActiveTrain.
func (t *Tx) ActiveTrain(ctx context.Context, area, code string) (Train, bool, error) {
	return activeTrain(ctx, t.tx, area, code)
}

func activeTrain(ctx context.Context, q querier, area, code string) (Train, bool, error) {
	var tr Train
	err := q.QueryRowContext(ctx, `
		SELECT id, area, code, berth_id, active, cancelled, last_seen
		FROM trains
		WHERE area = ? AND code = ? AND cancelled = 0
		ORDER BY last_seen DESC, id
		LIMIT 1
	`, area, code).Scan(&tr.ID, &tr.Area, &tr.Code, &tr.BerthID, &tr.Active, &tr.Cancelled, &tr.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return Train{}, false, nil
	}
	if err != nil {
		return Train{}, false, fmt.Errorf("find active train %s/%s: %w", area, code, err)
	}
	return tr, true, nil
}

// Occupant finds the non-cancelled train currently occupying a berth,
// excluding the episode identified by excludeID (pass "" to exclude none).
func (t *Tx) Occupant(ctx context.Context, berthID int64, excludeID string) (Train, bool, error) {
	var tr Train
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, area, code, berth_id, active, cancelled, last_seen
		FROM trains
		WHERE berth_id = ? AND cancelled = 0 AND id != ?
		ORDER BY last_seen DESC, id
		LIMIT 1
	`, berthID, excludeID).Scan(&tr.ID, &tr.Area, &tr.Code, &tr.BerthID, &tr.Active, &tr.Cancelled, &tr.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return Train{}, false, nil
	}
	if err != nil {
		return Train{}, false, fmt.Errorf("find occupant of berth %d: %w", berthID, err)
	}
	return tr, true, nil
}

// InsertTrain opens a new occupancy episode.
func (t *Tx) InsertTrain(ctx context.Context, tr Train) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO trains (id, area, code, berth_id, active, cancelled, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tr.ID, tr.Area, tr.Code, tr.BerthID, tr.Active, tr.Cancelled, tr.LastSeen)
	if err != nil {
		return fmt.Errorf("insert train %s/%s: %w", tr.Area, tr.Code, err)
	}
	return nil
}

// UpdateTrain saves the mutable fields of an episode row by id.
func (t *Tx) UpdateTrain(ctx context.Context, tr Train) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE trains
		SET area = ?, code = ?, berth_id = ?, active = ?, cancelled = ?, last_seen = ?
		WHERE id = ?
	`, tr.Area, tr.Code, tr.BerthID, tr.Active, tr.Cancelled, tr.LastSeen, tr.ID)
	if err != nil {
		return fmt.Errorf("update train %s: %w", tr.ID, err)
	}
	return nil
}

// CancelTrain closes an episode: cancelled is terminal and the row is
// excluded from all active lookups from this transaction's commit on.
func (t *Tx) CancelTrain(ctx context.Context, id string, lastSeen int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE trains SET active = 0, cancelled = 1, last_seen = ?
		WHERE id = ? AND cancelled = 0
	`, lastSeen, id)
	if err != nil {
		return fmt.Errorf("cancel train %s: %w", id, err)
	}
	return nil
}

// ActivePositions returns every non-cancelled train whose berth has a
// surveyed position, ordered deterministically for the projection.
func (s *Store) ActivePositions(ctx context.Context) ([]TrainPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.code, b.latitude, b.longitude, t.last_seen
		FROM trains t
		JOIN berths b ON b.id = t.berth_id
		WHERE t.cancelled = 0 AND b.latitude IS NOT NULL AND b.longitude IS NOT NULL
		ORDER BY t.code ASC, t.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active positions: %w", err)
	}
	defer rows.Close()

	positions := []TrainPosition{}
	for rows.Next() {
		var p TrainPosition
		if err := rows.Scan(&p.ID, &p.Code, &p.Latitude, &p.Longitude, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return positions, nil
}
