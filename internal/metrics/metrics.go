// Package metrics records pipeline counters on a private registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels
const (
	StageScript = "script"
	StageAudio  = "audio"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal        prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	Failures         *prometheus.CounterVec
	BytesSynthesized prometheus.Counter
	SessionsSaved    prometheus.Counter
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "hypnojourney_pipeline_runs_total",
			Help: "Generation pipelines started",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hypnojourney_stage_duration_seconds",
			Help:    "Per-stage latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"stage"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hypnojourney_pipeline_failures_total",
			Help: "Pipeline failures by error kind",
		}, []string{"kind"}),
		BytesSynthesized: f.NewCounter(prometheus.CounterOpts{
			Name: "hypnojourney_audio_bytes_total",
			Help: "Audio bytes received from the synthesis service",
		}),
		SessionsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "hypnojourney_sessions_saved_total",
			Help: "Session records written to the store",
		}),
	}
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordFailure counts a failure of kind.
func (m *Metrics) RecordFailure(kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(kind).Inc()
}

// RecordRun counts a pipeline start.
func (m *Metrics) RecordRun() {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
}

// RecordAudio counts synthesized bytes.
func (m *Metrics) RecordAudio(n int) {
	if m == nil {
		return
	}
	m.BytesSynthesized.Add(float64(n))
}

// RecordSave counts a stored session record.
func (m *Metrics) RecordSave() {
	if m == nil {
		return
	}
	m.SessionsSaved.Inc()
}

// WriteFile writes the registry in Prometheus text format to path.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
