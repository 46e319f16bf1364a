// Package metrics exposes pipeline counters over Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Frame processing counters
	FramesCaptured  atomic.Uint64
	FramesEvaluated atomic.Uint64
	FramesSkipped   atomic.Uint64

	// Detection counters
	PersonsDetected atomic.Uint64
	DetectErrors    atomic.Uint64

	// Evaluation counters
	RepsCounted      atomic.Uint64
	SessionsStarted  atomic.Uint64
	SessionsFinished atomic.Uint64

	// WebSocket client tracking
	ActiveClients atomic.Uint64
	TotalClients  atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerCollectors()
	return m
}

func (m *Metrics) registerCollectors() {
	gauges := []struct {
		name string
		help string
		load func() uint64
	}{
		{"physio_frames_captured_total", "Total frames read from the camera", m.FramesCaptured.Load},
		{"physio_frames_evaluated_total", "Total frames run through pose detection and evaluation", m.FramesEvaluated.Load},
		{"physio_frames_skipped_total", "Total frames skipped while idle", m.FramesSkipped.Load},
		{"physio_persons_detected_total", "Total person detections returned by the pose model", m.PersonsDetected.Load},
		{"physio_detect_errors_total", "Total pose detection errors", m.DetectErrors.Load},
		{"physio_reps_counted_total", "Total repetitions counted across all sessions", m.RepsCounted.Load},
		{"physio_sessions_started_total", "Total evaluation sessions started", m.SessionsStarted.Load},
		{"physio_sessions_finished_total", "Total evaluation sessions finished", m.SessionsFinished.Load},
		{"physio_active_clients", "Number of connected WebSocket clients", m.ActiveClients.Load},
		{"physio_total_clients", "Total WebSocket clients ever connected", m.TotalClients.Load},
	}

	for _, g := range gauges {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
