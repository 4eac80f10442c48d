package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReading creates a reading with the given measurements.
func createTestReading(deviceID string, ph, cod float64) telemetry.Reading {
	return telemetry.Reading{
		Timestamp: "12:00:00",
		DeviceID:  deviceID,
		PH:        ph,
		COD:       cod,
	}
}

// createTestVerdict creates a verdict for rawID with gate following pollution.
func createTestVerdict(rawID int64, polluted bool) telemetry.Verdict {
	return telemetry.Verdict{
		Timestamp:   "12:00:01",
		RawID:       rawID,
		IsPollution: polluted,
		GateOpen:    polluted,
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getSchemaObjects(t *testing.T, db *sql.DB, kind, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type=? AND tbl_name=?", kind, table)
	if err != nil {
		t.Fatalf("failed to list %ss for %q: %v", kind, table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan %s name: %v", kind, err)
		}
		names = append(names, name)
	}
	return names
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
