// Package mirror copies committed readings and verdicts into InfluxDB for
// time-series dashboards.
//
// The mirror is write-only and best effort. SQLite remains the source of
// truth; the pipeline logs mirror failures and moves on.
package mirror

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// Measurement names.
const (
	MeasurementReading = "reading"
	MeasurementVerdict = "verdict"
)

// Config locates the InfluxDB bucket to write into.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// Clock stamps points. Default: telemetry.SystemClock.
	Clock telemetry.Clock
}

// Influx writes points through the blocking write API, one HTTP request per
// record.
type Influx struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	clock  telemetry.Clock
}

// NewInflux creates a mirror for cfg. It does not contact the server.
func NewInflux(cfg Config) (*Influx, error) {
	if cfg.URL == "" {
		return nil, errors.New("mirror: influx url is required")
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("mirror: influx org and bucket are required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = telemetry.SystemClock{}
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		clock:  clock,
	}, nil
}

// WriteReading writes r as a "reading" point tagged with its device id.
func (m *Influx) WriteReading(ctx context.Context, r telemetry.Reading) error {
	p := influxdb2.NewPoint(
		MeasurementReading,
		map[string]string{"device_id": r.DeviceID},
		map[string]interface{}{
			"ph":         r.PH,
			"cod":        r.COD,
			"reading_id": r.ID,
		},
		m.clock.Now(),
	)
	if err := m.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("mirror reading %d: %w", r.ID, err)
	}
	return nil
}

// WriteVerdict writes v as a "verdict" point.
func (m *Influx) WriteVerdict(ctx context.Context, v telemetry.Verdict) error {
	p := influxdb2.NewPoint(
		MeasurementVerdict,
		nil,
		map[string]interface{}{
			"verdict_id":   v.ID,
			"raw_id":       v.RawID,
			"is_pollution": v.IsPollution,
			"gate_open":    v.GateOpen,
		},
		m.clock.Now(),
	)
	if err := m.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("mirror verdict %d: %w", v.ID, err)
	}
	return nil
}

// Close releases the client's resources.
func (m *Influx) Close() {
	m.client.Close()
}
