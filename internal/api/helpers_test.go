package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sluicewatch/internal/metrics"
	"github.com/roach88/sluicewatch/internal/service"
	"github.com/roach88/sluicewatch/internal/store"
	"github.com/roach88/sluicewatch/internal/telemetry"
	"github.com/roach88/sluicewatch/internal/testutil"
)

const testRequestID = "test-request-0001"

type testEnv struct {
	handler  http.Handler
	store    *store.Store
	pipeline *service.Pipeline
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	p := service.NewPipeline(s, service.Options{Metrics: m, Logger: logger})

	return &testEnv{
		handler: NewRouter(NewHandler(p, logger), RouterOptions{
			Metrics:    m,
			RequestIDs: testutil.NewFixedIDGenerator(testRequestID),
			Logger:     logger,
		}),
		store:    s,
		pipeline: p,
		metrics:  m,
	}
}

func newStubEnv(t *testing.T, p Pipeline) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(NewHandler(p, logger), RouterOptions{
		RequestIDs: testutil.NewFixedIDGenerator(testRequestID),
		Logger:     logger,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertGolden(t *testing.T, name string, rec *httptest.ResponseRecorder) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, rec.Body.Bytes())
}

// stubPipeline returns canned results.
type stubPipeline struct {
	ingestErr error
	latest    telemetry.Reading
	latestOK  bool
	latestErr error
	submitErr error
	snapshot  telemetry.Snapshot
	pingErr   error

	ingested  []telemetry.Reading
	submitted []telemetry.Verdict
}

func (s *stubPipeline) Ingest(ctx context.Context, r telemetry.Reading) (int64, error) {
	if s.ingestErr != nil {
		return 0, s.ingestErr
	}
	s.ingested = append(s.ingested, r)
	return int64(len(s.ingested)), nil
}

func (s *stubPipeline) LatestReading(ctx context.Context) (telemetry.Reading, bool, error) {
	return s.latest, s.latestOK, s.latestErr
}

func (s *stubPipeline) SubmitVerdict(ctx context.Context, v telemetry.Verdict) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted = append(s.submitted, v)
	return nil
}

func (s *stubPipeline) Dashboard(ctx context.Context) telemetry.Snapshot {
	return s.snapshot
}

func (s *stubPipeline) Ping(ctx context.Context) error {
	return s.pingErr
}
