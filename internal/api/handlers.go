package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// Response bodies fixed by the wire protocol.
const (
	StatusSavedToRaw    = "saved_to_raw"
	StatusSavedToResult = "saved_to_result"
	ErrorNoData         = "no_data"
)

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status string `json:"status"`
}

// NoDataResponse is returned by fetch_latest when no reading exists.
type NoDataResponse struct {
	Error string `json:"error"`
}

// Pipeline is the set of operations the handlers serve.
// *service.Pipeline implements it.
type Pipeline interface {
	Ingest(ctx context.Context, r telemetry.Reading) (int64, error)
	LatestReading(ctx context.Context) (telemetry.Reading, bool, error)
	SubmitVerdict(ctx context.Context, v telemetry.Verdict) error
	Dashboard(ctx context.Context) telemetry.Snapshot
	Ping(ctx context.Context) error
}

// Handler serves the pipeline routes.
type Handler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger means slog.Default().
func NewHandler(p Pipeline, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pipeline: p, logger: logger}
}

// HandleUpload ingests one reading.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	reading, err := req.reading()
	if err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	if _, err := h.pipeline.Ingest(r.Context(), reading); err != nil {
		h.logger.Error("ingest failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, "failed to store reading", nil, http.StatusInternalServerError))
		return
	}

	RespondWithJSON(w, http.StatusCreated, StatusResponse{Status: StatusSavedToRaw})
}

// HandleFetchLatest returns the newest reading or the no_data marker.
func (h *Handler) HandleFetchLatest(w http.ResponseWriter, r *http.Request) {
	reading, ok, err := h.pipeline.LatestReading(r.Context())
	if err != nil {
		h.logger.Error("fetch latest failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, "failed to fetch latest reading", nil, http.StatusInternalServerError))
		return
	}
	if !ok {
		RespondWithJSON(w, http.StatusOK, NoDataResponse{Error: ErrorNoData})
		return
	}
	RespondWithJSON(w, http.StatusOK, reading)
}

// HandleSubmitResult stores one verdict.
func (h *Handler) HandleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var req verdictRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	verdict, err := req.verdict()
	if err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	if err := h.pipeline.SubmitVerdict(r.Context(), verdict); err != nil {
		h.logger.Error("submit verdict failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, "failed to store verdict", nil, http.StatusInternalServerError))
		return
	}

	RespondWithJSON(w, http.StatusCreated, StatusResponse{Status: StatusSavedToResult})
}

// HandleDashboard returns the dashboard snapshot. It never fails.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.pipeline.Dashboard(r.Context()))
}

// HandleHealth reports whether the store is reachable.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, "database unavailable", nil, http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (h *Handler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Debug("rejected request body",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)

	var ve *telemetry.ValidationError
	if errors.As(err, &ve) {
		RespondWithError(w, NewAPIError(ErrorCodeValidationFailed, ve.Error(), map[string]string{"field": ve.Field}, http.StatusBadRequest))
		return
	}
	RespondWithError(w, NewAPIError(ErrorCodeInvalidFormat, errInvalidFormat.Error(), nil, http.StatusBadRequest))
}
