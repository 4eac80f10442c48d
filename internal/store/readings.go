package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// AppendReading inserts a reading and returns the id the store assigned.
// r.ID is ignored.
func (s *Store) AppendReading(ctx context.Context, r telemetry.Reading) (int64, error) {
	return s.appendRow(ctx, "append reading", `
		INSERT INTO raw_readings (timestamp, device_id, ph, cod)
		VALUES (?, ?, ?, ?)
	`, r.Timestamp, r.DeviceID, r.PH, r.COD)
}

// LatestReading returns the reading with the highest id.
// ok is false when the table is empty.
func (s *Store) LatestReading(ctx context.Context) (telemetry.Reading, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, device_id, ph, cod
		FROM raw_readings
		ORDER BY id DESC
		LIMIT 1
	`)
	return scanReading(row, "latest reading")
}

// GetReading retrieves a single reading by id.
// ok is false if no reading has that id.
func (s *Store) GetReading(ctx context.Context, id int64) (telemetry.Reading, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, device_id, ph, cod
		FROM raw_readings
		WHERE id = ?
	`, id)
	return scanReading(row, "get reading")
}

// CountReadings returns the number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	return s.count(ctx, "raw_readings")
}

func scanReading(row *sql.Row, op string) (telemetry.Reading, bool, error) {
	var r telemetry.Reading
	err := row.Scan(&r.ID, &r.Timestamp, &r.DeviceID, &r.PH, &r.COD)
	if errors.Is(err, sql.ErrNoRows) {
		return telemetry.Reading{}, false, nil
	}
	if err != nil {
		return telemetry.Reading{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return r, true, nil
}
