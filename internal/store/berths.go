package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Berth is a track-circuit section, identified by (area, code).
// Latitude/Longitude are nil for berths without a surveyed position.
// BorderIn names the neighbouring area trains enter this berth from;
// BorderOut names the area a train exits into when it leaves this berth.
// Reference data: never mutated by the step-event processor.
type Berth struct {
	ID        int64
	Area      string
	Code      string
	Latitude  *float64
	Longitude *float64
	BorderIn  string
	BorderOut string
}

// Located reports whether the berth has a surveyed position.
func (b Berth) Located() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// LookupBerth resolves a berth by (area, code). Absence is a normal,
// expected condition (areas outside the tracked footprint, unknown codes)
// and is reported via the bool, not an error.
func (s *Store) LookupBerth(ctx context.Context, area, code string) (Berth, bool, error) {
	return lookupBerth(ctx, s.db, area, code)
}

// LookupBerth is the transactional variant of Store.LookupBerth.
func (t *Tx) LookupBerth(ctx context.Context, area, code string) (Berth, bool, error) {
	return lookupBerth(ctx, t.tx, area, code)
}

func lookupBerth(ctx context.Context, q querier, area, code string) (Berth, bool, error) {
	var b Berth
	err := q.QueryRowContext(ctx, `
		SELECT id, area, code, latitude, longitude, border_in, border_out
		FROM berths
		WHERE area = ? AND code = ?
	`, area, code).Scan(&b.ID, &b.Area, &b.Code, &b.Latitude, &b.Longitude, &b.BorderIn, &b.BorderOut)
	if errors.Is(err, sql.ErrNoRows) {
		return Berth{}, false, nil
	}
	if err != nil {
		return Berth{}, false, fmt.Errorf("lookup berth %s/%s: %w", area, code, err)
	}
	return b, true, nil
}

// UpsertBerth inserts or replaces a berth's coordinates, preserving any
// border links already configured for it. Used only by reference import.
func (s *Store) UpsertBerth(ctx context.Context, b Berth) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO berths (area, code, latitude, longitude, border_in, border_out)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (area, code) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, b.Area, b.Code, b.Latitude, b.Longitude, b.BorderIn, b.BorderOut)
	if err != nil {
		return fmt.Errorf("upsert berth %s/%s: %w", b.Area, b.Code, err)
	}
	return nil
}

// SetBorderIn records that trains enter (area, code) from neighbour.
// Creates the berth row if the coordinates import has not seen it.
func (s *Store) SetBorderIn(ctx context.Context, area, code, neighbour string) error {
	return s.setBorder(ctx, area, code, neighbour, "border_in")
}

// SetBorderOut records that trains leaving (area, code) cross into neighbour.
func (s *Store) SetBorderOut(ctx context.Context, area, code, neighbour string) error {
	return s.setBorder(ctx, area, code, neighbour, "border_out")
}

func (s *Store) setBorder(ctx context.Context, area, code, neighbour, column string) error {
	// column is one of two compile-time constants, never caller input.
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO berths (area, code, %[1]s)
		VALUES (?, ?, ?)
		ON CONFLICT (area, code) DO UPDATE SET %[1]s = excluded.%[1]s
	`, column), area, code, neighbour)
	if err != nil {
		return fmt.Errorf("set %s for berth %s/%s: %w", column, area, code, err)
	}
	return nil
}

// CountBerths returns the number of berth rows. Used by import tooling
// for reporting.
func (s *Store) CountBerths(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM berths`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count berths: %w", err)
	}
	return n, nil
}
