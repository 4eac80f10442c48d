package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if _, err := s1.AppendReading(ctx, createTestReading("A", 7.2, 30)); err != nil {
		t.Fatalf("AppendReading() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	n, err := s2.CountReadings(ctx)
	if err != nil {
		t.Fatalf("CountReadings() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountReadings() = %d, want 1 (rows must survive reopen)", n)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"raw_readings", "verdicts"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	_, err = Open(path)
	if err == nil {
		t.Fatal("expected error for newer schema version, got nil")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("error = %v, want schema version error", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close may error but must not panic
	_ = s.Close()
}

func TestPing(t *testing.T) {
	s := createTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_UserVersion(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

// Schema tests

func TestSchema_RawReadingsTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "raw_readings")

	for _, col := range []string{"id", "timestamp", "device_id", "ph", "cod"} {
		if !contains(columns, col) {
			t.Errorf("raw_readings table missing column %q", col)
		}
	}
}

func TestSchema_VerdictsTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "verdicts")

	for _, col := range []string{"id", "timestamp", "raw_id", "is_pollution", "gate_open"} {
		if !contains(columns, col) {
			t.Errorf("verdicts table missing column %q", col)
		}
	}
}

func TestSchema_VerdictsRawIDIndex(t *testing.T) {
	s := createTestStore(t)
	indexes := getSchemaObjects(t, s.db, "index", "verdicts")

	if !contains(indexes, "idx_verdicts_raw_id") {
		t.Error("verdicts table missing index idx_verdicts_raw_id")
	}
}

func TestSchema_AppendOnlyTriggers(t *testing.T) {
	s := createTestStore(t)

	tests := map[string][]string{
		"raw_readings": {"raw_readings_no_update", "raw_readings_no_delete"},
		"verdicts":     {"verdicts_no_update", "verdicts_no_delete"},
	}

	for table, want := range tests {
		triggers := getSchemaObjects(t, s.db, "trigger", table)
		for _, name := range want {
			if !contains(triggers, name) {
				t.Errorf("%s missing trigger %q", table, name)
			}
		}
	}
}

// Append-only enforcement

func TestAppendOnly_RejectsUpdateAndDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rawID, err := s.AppendReading(ctx, createTestReading("A", 7.2, 30))
	if err != nil {
		t.Fatalf("AppendReading() failed: %v", err)
	}
	if _, err := s.AppendVerdict(ctx, createTestVerdict(rawID, false)); err != nil {
		t.Fatalf("AppendVerdict() failed: %v", err)
	}

	statements := []string{
		"UPDATE raw_readings SET ph = 1.0",
		"DELETE FROM raw_readings",
		"UPDATE verdicts SET is_pollution = 1",
		"DELETE FROM verdicts",
	}

	for _, stmt := range statements {
		_, err := s.db.Exec(stmt)
		if err == nil {
			t.Errorf("%q succeeded, want append-only error", stmt)
			continue
		}
		if !strings.Contains(err.Error(), "append-only") {
			t.Errorf("%q error = %v, want append-only error", stmt, err)
		}
	}

	r, ok, err := s.GetReading(ctx, rawID)
	if err != nil || !ok {
		t.Fatalf("GetReading() = ok:%v err:%v", ok, err)
	}
	if r.PH != 7.2 {
		t.Errorf("reading was modified: ph = %v, want 7.2", r.PH)
	}
}

func TestConstraint_VerdictBooleans(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO verdicts (timestamp, raw_id, is_pollution, gate_open)
		VALUES ('12:00:00', 1, 2, 0)
	`)
	if err == nil {
		t.Error("expected CHECK constraint failure for is_pollution = 2")
	}
}
