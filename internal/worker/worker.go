package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/sluicewatch/internal/metrics"
	"github.com/roach88/sluicewatch/internal/telemetry"
)

// NoneProcessed is the dedup marker value before any verdict is committed.
const NoneProcessed int64 = -1

// DefaultInterval is the default pause between cycles.
const DefaultInterval = time.Second

// ReadingSource yields the most recent reading. ok is false when no reading
// exists yet.
type ReadingSource interface {
	LatestReading(ctx context.Context) (telemetry.Reading, bool, error)
}

// VerdictSink accepts a verdict for durable storage.
type VerdictSink interface {
	SubmitVerdict(ctx context.Context, v telemetry.Verdict) error
}

// Config carries the worker's tunables. Zero fields take defaults.
type Config struct {
	// Interval between cycles. Default: DefaultInterval.
	Interval time.Duration

	// Classifier decides pollution. Default: telemetry.DefaultClassifier().
	Classifier telemetry.Classifier

	// Clock stamps verdicts. Default: telemetry.SystemClock.
	Clock telemetry.Clock

	// LastProcessedID seeds the dedup marker. Reading ids start at 1, so the
	// zero value is treated as NoneProcessed.
	LastProcessedID int64

	// Logger receives cycle logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Worker runs decision cycles against a source and a sink.
//
// Thread-safety model:
//   - Step() and Run(): must be called from exactly one goroutine
//   - State(), LastProcessedID(), ID(): safe from any goroutine
type Worker struct {
	id         string
	source     ReadingSource
	sink       VerdictSink
	interval   time.Duration
	classifier telemetry.Classifier
	clock      telemetry.Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics

	state  atomic.Int32
	lastID atomic.Int64
}

// New creates a worker. source and sink must be non-nil.
func New(source ReadingSource, sink VerdictSink, cfg Config) (*Worker, error) {
	if source == nil {
		return nil, errors.New("worker: reading source is required")
	}
	if sink == nil {
		return nil, errors.New("worker: verdict sink is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("worker: interval must be positive, got %s", cfg.Interval)
	}

	w := &Worker{
		id:         uuid.Must(uuid.NewV7()).String(),
		source:     source,
		sink:       sink,
		interval:   cfg.Interval,
		classifier: cfg.Classifier,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if w.interval == 0 {
		w.interval = DefaultInterval
	}
	if w.classifier == nil {
		w.classifier = telemetry.DefaultClassifier()
	}
	if w.clock == nil {
		w.clock = telemetry.SystemClock{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("worker_id", w.id)

	last := cfg.LastProcessedID
	if last == 0 {
		last = NoneProcessed
	}
	w.lastID.Store(last)
	w.metrics.SetLastProcessed(last)
	for _, o := range countedOutcomes {
		w.metrics.DeclareWorkerOutcomes(string(o))
	}

	return w, nil
}

// ID returns the worker's instance id, a UUIDv7 attached to every log line.
func (w *Worker) ID() string {
	return w.id
}

// State returns the state the worker is currently in.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// LastProcessedID returns the dedup marker.
func (w *Worker) LastProcessedID() int64 {
	return w.lastID.Load()
}

// Run performs one cycle immediately and then one per interval until ctx is
// cancelled. It returns ctx.Err().
//
// Cycle failures are logged and never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("decision worker starting",
		"interval", w.interval,
		"last_processed_id", w.LastProcessedID(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			w.Step(ctx)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("decision worker stopping: context cancelled",
				"last_processed_id", w.LastProcessedID(),
			)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step runs exactly one cycle and reports what happened.
func (w *Worker) Step(ctx context.Context) CycleResult {
	res := w.step(ctx)
	w.state.Store(int32(StateIdle))
	if res.Outcome != OutcomeCancelled {
		w.metrics.WorkerCycle(string(res.Outcome))
	}
	return res
}

func (w *Worker) step(ctx context.Context) CycleResult {
	w.state.Store(int32(StateFetch))
	reading, ok, err := w.source.LatestReading(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.logger.Debug("fetch interrupted by shutdown", "error", err)
			return CycleResult{Outcome: OutcomeCancelled, Err: ctx.Err()}
		}
		w.logger.Error("fetch latest reading failed", "error", err)
		return CycleResult{Outcome: OutcomeFetchFailed, Err: err}
	}
	if !ok {
		w.logger.Debug("no readings yet")
		return CycleResult{Outcome: OutcomeEmpty}
	}

	w.state.Store(int32(StateDedupCheck))
	if reading.ID == w.lastID.Load() {
		w.logger.Debug("reading already processed, skipping", "reading_id", reading.ID)
		return CycleResult{Outcome: OutcomeDuplicate, ReadingID: reading.ID}
	}

	w.state.Store(int32(StateClassify))
	verdict := telemetry.Decide(w.classifier, reading, telemetry.Stamp(w.clock))

	w.state.Store(int32(StateCommit))
	if err := w.sink.SubmitVerdict(ctx, verdict); err != nil {
		if ctx.Err() != nil {
			w.logger.Debug("commit interrupted by shutdown", "reading_id", reading.ID, "error", err)
			return CycleResult{Outcome: OutcomeCancelled, ReadingID: reading.ID, Verdict: verdict, Err: ctx.Err()}
		}
		w.logger.Error("commit verdict failed",
			"reading_id", reading.ID,
			"error", err,
		)
		return CycleResult{Outcome: OutcomeCommitFailed, ReadingID: reading.ID, Verdict: verdict, Err: err}
	}

	w.lastID.Store(reading.ID)
	w.metrics.SetLastProcessed(reading.ID)

	action := "normal monitoring"
	if verdict.GateOpen {
		action = "open gate"
	}
	w.logger.Info("verdict committed",
		"reading_id", reading.ID,
		"ph", reading.PH,
		"cod", reading.COD,
		"is_pollution", verdict.IsPollution,
		"action", action,
	)

	return CycleResult{Outcome: OutcomeCommitted, ReadingID: reading.ID, Verdict: verdict}
}
