package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sluicewatch/internal/store"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// seedStore creates a database at a temp path holding the given readings,
// each optionally followed by a verdict.
func seedStore(t *testing.T, readings []telemetry.Reading, verdicts []telemetry.Verdict) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "water_system.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, r := range readings {
		_, err := st.AppendReading(ctx, r)
		require.NoError(t, err)
	}
	for _, v := range verdicts {
		_, err := st.AppendVerdict(ctx, v)
		require.NoError(t, err)
	}
	return path
}

// counts reopens the database at path and returns its row counts.
func counts(t *testing.T, path string) (readings, verdicts int64) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	readings, err = st.CountReadings(ctx)
	require.NoError(t, err)
	verdicts, err = st.CountVerdicts(ctx)
	require.NoError(t, err)
	return readings, verdicts
}

// writeConfig writes a YAML config file and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sluicewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
