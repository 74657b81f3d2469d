package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks stage-level behavior of one batch run.
type PipelineMetrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	records       prometheus.Gauge
	fallbacks     *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "underwriter",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage", "status"},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "underwriter",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Completed pipeline stages by status.",
		},
		[]string{"service", "stage", "status"},
	)
	records := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "underwriter",
			Subsystem: "pipeline",
			Name:      "merchants_in_run",
			Help:      "Number of merchant records in the current run.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "underwriter",
			Subsystem: "pipeline",
			Name:      "enrichment_fallback_total",
			Help:      "Enrichment fallbacks applied by stage.",
		},
		[]string{"service", "stage"},
	)

	registry.MustRegister(stageDuration, stageTotal, records, fallbacks)

	return &PipelineMetrics{
		registry:      registry,
		stageDuration: stageDuration,
		stageTotal:    stageTotal,
		records:       records,
		fallbacks:     fallbacks,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) SetRunSize(n int) {
	m.records.Set(float64(n))
}

func (m *PipelineMetrics) ObserveStage(service, stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(service, stage, status).Observe(duration.Seconds())
	m.stageTotal.WithLabelValues(service, stage, status).Inc()
}

func (m *PipelineMetrics) IncFallback(service, stage string) {
	m.fallbacks.WithLabelValues(service, stage).Inc()
}
