// Package metrics exposes pipeline counters and gauges to Prometheus.
//
// Each process builds its own registry with New, so tests and the
// all-in-one run mode never collide on the global default registry.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sluicewatch"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	readingsIngested  prometheus.Counter
	verdictsCommitted prometheus.Counter
	workerCycles      *prometheus.CounterVec
	lastProcessedID   prometheus.Gauge
	gateOpen          prometheus.Gauge
}

// New creates a registry with the pipeline collectors plus the standard Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Readings appended to the reading store.",
		}),
		verdictsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_committed_total",
			Help:      "Verdicts appended to the verdict store.",
		}),
		workerCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_cycles_total",
			Help:      "Decision worker cycles by outcome.",
		}, []string{"outcome"}),
		lastProcessedID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_reading_id",
			Help:      "Reading id most recently committed by the decision worker, -1 for none.",
		}),
		gateOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_open",
			Help:      "1 if the latest committed verdict opened the sluice gate.",
		}),
	}
	m.lastProcessedID.Set(-1)

	m.registry.MustRegister(
		m.readingsIngested,
		m.verdictsCommitted,
		m.workerCycles,
		m.lastProcessedID,
		m.gateOpen,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// DeclareWorkerOutcomes creates the worker_cycles_total series for each
// outcome so they are exported as zero before the first cycle.
func (m *Metrics) DeclareWorkerOutcomes(outcomes ...string) {
	if m == nil {
		return
	}
	for _, o := range outcomes {
		m.workerCycles.WithLabelValues(o)
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ReadingIngested counts one appended reading.
func (m *Metrics) ReadingIngested() {
	if m == nil {
		return
	}
	m.readingsIngested.Inc()
}

// VerdictCommitted counts one appended verdict and records its gate state.
func (m *Metrics) VerdictCommitted(gateOpen bool) {
	if m == nil {
		return
	}
	m.verdictsCommitted.Inc()
	if gateOpen {
		m.gateOpen.Set(1)
	} else {
		m.gateOpen.Set(0)
	}
}

// WorkerCycle counts one decision worker cycle with the given outcome.
func (m *Metrics) WorkerCycle(outcome string) {
	if m == nil {
		return
	}
	m.workerCycles.WithLabelValues(outcome).Inc()
}

// SetLastProcessed records the worker's dedup marker.
func (m *Metrics) SetLastProcessed(id int64) {
	if m == nil {
		return
	}
	m.lastProcessedID.Set(float64(id))
}
