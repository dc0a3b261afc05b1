package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Operator is a train operating company, keyed by its sector code.
type Operator struct {
	SectorCode int
	Name       string
	ATOCCode   string
}

// Movement is one stored movement report, correlated to an operator by
// sector code. SectorCode is nil when the report carried no usable
// operator code. No state machine runs over these rows.
type Movement struct {
	ID         int64
	TrainID    string
	Headcode   string
	SectorCode *int
	RecordedAt int64
}

// UpsertOperator inserts or replaces an operator record.
func (s *Store) UpsertOperator(ctx context.Context, op Operator) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operators (sector_code, name, atoc_code)
		VALUES (?, ?, ?)
		ON CONFLICT (sector_code) DO UPDATE SET
			name = excluded.name,
			atoc_code = excluded.atoc_code
	`, op.SectorCode, op.Name, op.ATOCCode)
	if err != nil {
		return fmt.Errorf("upsert operator %d: %w", op.SectorCode, err)
	}
	return nil
}

// OperatorBySector resolves an operator by sector code.
func (s *Store) OperatorBySector(ctx context.Context, sectorCode int) (Operator, bool, error) {
	var op Operator
	err := s.db.QueryRowContext(ctx, `
		SELECT sector_code, name, atoc_code FROM operators WHERE sector_code = ?
	`, sectorCode).Scan(&op.SectorCode, &op.Name, &op.ATOCCode)
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, false, nil
	}
	if err != nil {
		return Operator{}, false, fmt.Errorf("lookup operator %d: %w", sectorCode, err)
	}
	return op, true, nil
}

// InsertMovement stores one movement report.
func (s *Store) InsertMovement(ctx context.Context, m Movement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movements (train_id, headcode, sector_code, recorded_at)
		VALUES (?, ?, ?, ?)
	`, m.TrainID, m.Headcode, m.SectorCode, m.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert movement %s: %w", m.TrainID, err)
	}
	return nil
}

// CountMovements returns the number of stored movement reports.
func (s *Store) CountMovements(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}
