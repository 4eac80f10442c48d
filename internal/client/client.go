// Package client talks to a sluicewatch server over HTTP.
//
// Client satisfies worker.ReadingSource and worker.VerdictSink, so a
// decision worker can run in a separate process from the store, and
// feed.ReadingSink, so the sensor feed can post readings.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/roach88/sluicewatch/internal/api"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 5 * time.Second

// Options configures New. Zero fields take defaults.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is an HTTP client for the pipeline API.
// Safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// StatusError is returned when the server answers with an unexpected
// status. Code and Message come from the error envelope when present.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d: [%s] %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type uploadBody struct {
	DeviceID  string  `json:"deviceId"`
	Timestamp string  `json:"timestamp"`
	PH        float64 `json:"ph"`
	COD       float64 `json:"cod"`
}

type verdictBody struct {
	Timestamp   string `json:"timestamp"`
	RawID       int64  `json:"rawId"`
	IsPollution bool   `json:"isPollution"`
	GateOpen    bool   `json:"gateOpen"`
}

type latestBody struct {
	telemetry.Reading
	Error string `json:"error"`
}

// New creates a client for the server at baseURL (e.g.
// "http://127.0.0.1:5000").
func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(api.RequestIDHeader) == "" {
			r.SetHeader(api.RequestIDHeader, uuid.Must(uuid.NewV7()).String())
		}
		return nil
	})

	return &Client{http: rc, logger: opts.Logger}
}

// Ingest posts one reading. r.ID is not sent.
func (c *Client) Ingest(ctx context.Context, r telemetry.Reading) error {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodPost, api.PathUpload, uploadBody{
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp,
		PH:        r.PH,
		COD:       r.COD,
	}, &out)
	if err != nil {
		return fmt.Errorf("upload reading: %w", err)
	}
	return nil
}

// LatestReading fetches the newest reading. ok is false when the server
// has none.
func (c *Client) LatestReading(ctx context.Context) (telemetry.Reading, bool, error) {
	var out latestBody
	if err := c.do(ctx, http.MethodGet, api.PathFetchLatest, nil, &out); err != nil {
		return telemetry.Reading{}, false, fmt.Errorf("fetch latest reading: %w", err)
	}
	if out.Error == api.ErrorNoData {
		return telemetry.Reading{}, false, nil
	}
	if out.Error != "" {
		return telemetry.Reading{}, false, fmt.Errorf("fetch latest reading: server reported %q", out.Error)
	}
	return out.Reading, true, nil
}

// SubmitVerdict posts one verdict. v.ID is not sent.
func (c *Client) SubmitVerdict(ctx context.Context, v telemetry.Verdict) error {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodPost, api.PathSubmitResult, verdictBody{
		Timestamp:   v.Timestamp,
		RawID:       v.RawID,
		IsPollution: v.IsPollution,
		GateOpen:    v.GateOpen,
	}, &out)
	if err != nil {
		return fmt.Errorf("submit verdict: %w", err)
	}
	return nil
}

// Dashboard fetches the dashboard snapshot.
func (c *Client) Dashboard(ctx context.Context) (telemetry.Snapshot, error) {
	var out telemetry.Snapshot
	if err := c.do(ctx, http.MethodGet, api.PathDashboard, nil, &out); err != nil {
		return telemetry.Snapshot{}, fmt.Errorf("fetch dashboard: %w", err)
	}
	return out, nil
}

// Health returns nil when the server answers /health with 200.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get(api.PathHealth)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health check: %w", &StatusError{StatusCode: resp.StatusCode()})
	}
	return nil
}

// WaitHealthy polls Health every interval until it succeeds or ctx ends.
func (c *Client) WaitHealthy(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := c.Health(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var envelope errorEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&envelope)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}

	c.logger.Debug("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"request_id", resp.Header().Get(api.RequestIDHeader),
		"duration", resp.Time(),
	)

	if resp.IsError() {
		return &StatusError{
			StatusCode: resp.StatusCode(),
			Code:       envelope.Code,
			Message:    envelope.Message,
		}
	}
	return nil
}
