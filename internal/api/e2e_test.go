package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// Ingest, fetch, submit, then read the dashboard, all over HTTP against a
// fresh store.
func TestEndToEnd_SingleReading(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.handler, http.MethodPost, "/api/sensor/upload",
		`{"deviceId":"A","timestamp":"10:00:00","ph":7.2,"cod":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assertGolden(t, "upload_created", rec)

	rec = do(t, env.handler, http.MethodGet, "/api/ml/fetch_latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assertGolden(t, "fetch_latest_reading", rec)

	var latest telemetry.Reading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	require.Equal(t, int64(1), latest.ID)

	rec = do(t, env.handler, http.MethodPost, "/api/ml/submit_result",
		`{"timestamp":"10:00:05","rawId":1,"isPollution":false,"gateOpen":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assertGolden(t, "submit_created", rec)

	rec = do(t, env.handler, http.MethodGet, "/api/dashboard/monitor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assertGolden(t, "dashboard_snapshot", rec)
}

func TestEndToEnd_DashboardLagsUnclassifiedReadings(t *testing.T) {
	env := newTestEnv(t)

	do(t, env.handler, http.MethodPost, "/api/sensor/upload", `{"deviceId":"A","timestamp":"10:00:00","ph":7.2,"cod":30}`)
	do(t, env.handler, http.MethodPost, "/api/ml/submit_result", `{"timestamp":"10:00:05","rawId":1,"isPollution":false,"gateOpen":false}`)
	do(t, env.handler, http.MethodPost, "/api/sensor/upload", `{"deviceId":"A","timestamp":"10:00:06","ph":3.1,"cod":180}`)

	rec := do(t, env.handler, http.MethodGet, "/api/dashboard/monitor", "")
	assertGolden(t, "dashboard_snapshot", rec)
}

func TestEndToEnd_DanglingVerdict(t *testing.T) {
	env := newTestEnv(t)

	rec := do(t, env.handler, http.MethodPost, "/api/ml/submit_result",
		`{"timestamp":"10:00:05","rawId":42,"isPollution":true,"gateOpen":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, env.handler, http.MethodGet, "/api/dashboard/monitor", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assertGolden(t, "dashboard_empty", rec)
}
