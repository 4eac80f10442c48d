package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// AppendVerdict inserts a verdict and returns the id the store assigned.
// v.ID is ignored. v.RawID is stored as given; it is not checked against
// raw_readings.
func (s *Store) AppendVerdict(ctx context.Context, v telemetry.Verdict) (int64, error) {
	return s.appendRow(ctx, "append verdict", `
		INSERT INTO verdicts (timestamp, raw_id, is_pollution, gate_open)
		VALUES (?, ?, ?, ?)
	`, v.Timestamp, v.RawID, v.IsPollution, v.GateOpen)
}

// LatestVerdict returns the verdict with the highest id.
// ok is false when the table is empty.
func (s *Store) LatestVerdict(ctx context.Context) (telemetry.Verdict, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, raw_id, is_pollution, gate_open
		FROM verdicts
		ORDER BY id DESC
		LIMIT 1
	`)
	return scanVerdict(row, "latest verdict")
}

// GetVerdict retrieves a single verdict by id.
// ok is false if no verdict has that id.
func (s *Store) GetVerdict(ctx context.Context, id int64) (telemetry.Verdict, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, raw_id, is_pollution, gate_open
		FROM verdicts
		WHERE id = ?
	`, id)
	return scanVerdict(row, "get verdict")
}

// VerdictsForReading returns every verdict referencing rawID in id order.
// More than one result means the reading was classified twice, which the
// decision worker's dedup marker is meant to prevent.
func (s *Store) VerdictsForReading(ctx context.Context, rawID int64) ([]telemetry.Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, raw_id, is_pollution, gate_open
		FROM verdicts
		WHERE raw_id = ?
		ORDER BY id ASC
	`, rawID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []telemetry.Verdict{}
	for rows.Next() {
		var v telemetry.Verdict
		if err := rows.Scan(&v.ID, &v.Timestamp, &v.RawID, &v.IsPollution, &v.GateOpen); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	return verdicts, nil
}

// CountVerdicts returns the number of stored verdicts.
func (s *Store) CountVerdicts(ctx context.Context) (int64, error) {
	return s.count(ctx, "verdicts")
}

func scanVerdict(row *sql.Row, op string) (telemetry.Verdict, bool, error) {
	var v telemetry.Verdict
	err := row.Scan(&v.ID, &v.Timestamp, &v.RawID, &v.IsPollution, &v.GateOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return telemetry.Verdict{}, false, nil
	}
	if err != nil {
		return telemetry.Verdict{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}
