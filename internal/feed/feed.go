// Package feed simulates the field sensor: on a fixed interval it
// synthesizes a pH/COD reading and hands it to a sink, normally the
// ingestion endpoint over HTTP.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// Defaults.
const (
	DefaultInterval            = 5 * time.Second
	DefaultDeviceID            = "Station_A"
	DefaultPollutedProbability = 0.2
)

// Value ranges for synthesized readings. Each draw is uniform over [Min, Max).
var (
	PollutedPH  = Range{Min: 3.0, Max: 5.0}
	PollutedCOD = Range{Min: 120, Max: 200}
	NormalPH    = Range{Min: 6.5, Max: 8.5}
	NormalCOD   = Range{Min: 20, Max: 60}
)

// Range is a half-open interval.
type Range struct {
	Min, Max float64
}

func (r Range) draw(src Rand) float64 {
	return r.Min + src.Float64()*(r.Max-r.Min)
}

// Rand is the subset of *math/rand.Rand the feed uses.
type Rand interface {
	Float64() float64
}

// ReadingSink accepts synthesized readings. *client.Client implements it.
type ReadingSink interface {
	Ingest(ctx context.Context, r telemetry.Reading) error
}

// Config carries the feed's tunables. Zero fields take defaults, except
// PollutedProbability where zero is meaningful; use NewConfig for defaults.
type Config struct {
	Interval            time.Duration
	DeviceID            string
	PollutedProbability float64
	Rand                Rand
	Clock               telemetry.Clock
	Logger              *slog.Logger
}

// NewConfig returns a Config with every default filled in.
func NewConfig() Config {
	return Config{
		Interval:            DefaultInterval,
		DeviceID:            DefaultDeviceID,
		PollutedProbability: DefaultPollutedProbability,
	}
}

// Feed emits synthesized readings.
type Feed struct {
	sink     ReadingSink
	interval time.Duration
	deviceID string
	polluted float64
	rand     Rand
	clock    telemetry.Clock
	logger   *slog.Logger
}

// New creates a feed that posts to sink.
func New(sink ReadingSink, cfg Config) (*Feed, error) {
	if sink == nil {
		return nil, errors.New("feed: reading sink is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("feed: interval must be positive, got %s", cfg.Interval)
	}
	if cfg.PollutedProbability < 0 || cfg.PollutedProbability > 1 {
		return nil, fmt.Errorf("feed: polluted probability must be within [0,1], got %v", cfg.PollutedProbability)
	}

	f := &Feed{
		sink:     sink,
		interval: cfg.Interval,
		deviceID: cfg.DeviceID,
		polluted: cfg.PollutedProbability,
		rand:     cfg.Rand,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if f.interval == 0 {
		f.interval = DefaultInterval
	}
	if f.deviceID == "" {
		f.deviceID = DefaultDeviceID
	}
	if f.rand == nil {
		f.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if f.clock == nil {
		f.clock = telemetry.SystemClock{}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f, nil
}

// Next synthesizes one reading without sending it.
//
// One draw decides the regime: polluted when it falls below the polluted
// probability. Two more draw pH then COD from the regime's ranges.
func (f *Feed) Next() telemetry.Reading {
	phRange, codRange := NormalPH, NormalCOD
	if f.rand.Float64() < f.polluted {
		phRange, codRange = PollutedPH, PollutedCOD
	}

	return telemetry.Reading{
		Timestamp: telemetry.Stamp(f.clock),
		DeviceID:  f.deviceID,
		PH:        round(phRange.draw(f.rand), 2),
		COD:       round(codRange.draw(f.rand), 1),
	}
}

// Emit synthesizes one reading and sends it. Sink errors are logged and
// returned.
func (f *Feed) Emit(ctx context.Context) (telemetry.Reading, error) {
	r := f.Next()
	if err := f.sink.Ingest(ctx, r); err != nil {
		f.logger.Warn("sensor upload failed",
			"device_id", r.DeviceID,
			"error", err,
		)
		return r, err
	}
	f.logger.Info("sensor reading sent",
		"device_id", r.DeviceID,
		"timestamp", r.Timestamp,
		"ph", r.PH,
		"cod", r.COD,
	)
	return r, nil
}

// Run emits one reading immediately and then one per interval until ctx is
// cancelled. Upload failures never stop the loop. It returns ctx.Err().
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("sensor feed starting",
		"device_id", f.deviceID,
		"interval", f.interval,
		"polluted_probability", f.polluted,
	)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			_, _ = f.Emit(ctx)
		}

		select {
		case <-ctx.Done():
			f.logger.Info("sensor feed stopping: context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
