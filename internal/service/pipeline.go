// Package service holds the pipeline's operations on top of the store:
// ingesting readings, serving the latest reading to the decision worker,
// accepting verdicts and building the dashboard snapshot.
//
// Pipeline satisfies worker.ReadingSource and worker.VerdictSink, so an
// in-process worker can run against it directly.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sluicewatch/internal/metrics"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// Repository is the storage the pipeline needs. *store.Store implements it.
type Repository interface {
	AppendReading(ctx context.Context, r telemetry.Reading) (int64, error)
	LatestReading(ctx context.Context) (telemetry.Reading, bool, error)
	GetReading(ctx context.Context, id int64) (telemetry.Reading, bool, error)
	AppendVerdict(ctx context.Context, v telemetry.Verdict) (int64, error)
	LatestVerdict(ctx context.Context) (telemetry.Verdict, bool, error)
	Ping(ctx context.Context) error
}

// Mirror receives a copy of every committed record. *mirror.Influx
// implements it.
type Mirror interface {
	WriteReading(ctx context.Context, r telemetry.Reading) error
	WriteVerdict(ctx context.Context, v telemetry.Verdict) error
}

// Options configures optional collaborators. All fields may be nil.
type Options struct {
	Mirror  Mirror
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Pipeline implements the ingestion, query and verdict operations.
//
// Thread-safety: Pipeline holds no mutable state of its own and is safe for
// concurrent use; serialization of appends is the repository's job.
type Pipeline struct {
	repo    Repository
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPipeline creates a pipeline over repo.
func NewPipeline(repo Repository, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		repo:    repo,
		mirror:  opts.Mirror,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Ingest appends r and returns the id the store assigned. r.ID is ignored.
// No range checks are applied to the measurements.
func (p *Pipeline) Ingest(ctx context.Context, r telemetry.Reading) (int64, error) {
	id, err := p.repo.AppendReading(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("ingest reading: %w", err)
	}
	r.ID = id
	p.metrics.ReadingIngested()

	p.logger.Debug("reading stored",
		"reading_id", id,
		"device_id", r.DeviceID,
		"ph", r.PH,
		"cod", r.COD,
	)

	if p.mirror != nil {
		if err := p.mirror.WriteReading(ctx, r); err != nil {
			p.logger.Warn("mirror reading failed", "reading_id", id, "error", err)
		}
	}
	return id, nil
}

// LatestReading returns the reading with the highest id. ok is false when
// nothing has been ingested.
func (p *Pipeline) LatestReading(ctx context.Context) (telemetry.Reading, bool, error) {
	r, ok, err := p.repo.LatestReading(ctx)
	if err != nil {
		return telemetry.Reading{}, false, fmt.Errorf("fetch latest reading: %w", err)
	}
	return r, ok, nil
}

// SubmitVerdict appends v. v.ID is ignored; v.RawID is stored as given.
func (p *Pipeline) SubmitVerdict(ctx context.Context, v telemetry.Verdict) error {
	id, err := p.repo.AppendVerdict(ctx, v)
	if err != nil {
		return fmt.Errorf("submit verdict: %w", err)
	}
	v.ID = id
	p.metrics.VerdictCommitted(v.GateOpen)

	p.logger.Debug("verdict stored",
		"verdict_id", id,
		"raw_id", v.RawID,
		"is_pollution", v.IsPollution,
		"gate_open", v.GateOpen,
	)

	if p.mirror != nil {
		if err := p.mirror.WriteVerdict(ctx, v); err != nil {
			p.logger.Warn("mirror verdict failed", "verdict_id", id, "error", err)
		}
	}
	return nil
}

// Ping reports whether the store is reachable.
func (p *Pipeline) Ping(ctx context.Context) error {
	return p.repo.Ping(ctx)
}

// Dashboard joins the latest verdict with the reading it refers to.
//
// The result is always well formed. telemetry.EmptySnapshot is returned when
// no verdict exists, when the verdict's raw id does not resolve to a
// reading, or when the store fails; the last two are logged.
//
// The snapshot follows the latest verdict, not the latest reading: readings
// newer than the last classification are not shown.
func (p *Pipeline) Dashboard(ctx context.Context) telemetry.Snapshot {
	v, ok, err := p.repo.LatestVerdict(ctx)
	if err != nil {
		p.logger.Error("dashboard: fetch latest verdict failed", "error", err)
		return telemetry.EmptySnapshot
	}
	if !ok {
		return telemetry.EmptySnapshot
	}

	r, ok, err := p.repo.GetReading(ctx, v.RawID)
	if err != nil {
		p.logger.Error("dashboard: fetch reading failed",
			"verdict_id", v.ID,
			"raw_id", v.RawID,
			"error", err,
		)
		return telemetry.EmptySnapshot
	}
	if !ok {
		p.logger.Warn("dashboard: verdict references unknown reading",
			"verdict_id", v.ID,
			"raw_id", v.RawID,
		)
		return telemetry.EmptySnapshot
	}

	return telemetry.NewSnapshot(v, r)
}
