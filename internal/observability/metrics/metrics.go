// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics counts the pipeline's externally observable events. Alerting is
// best-effort, so dropped writes and broadcasts surface here rather than as
// request failures.
type Metrics struct {
	MeasurementsIngested *prometheus.CounterVec
	ViolationsDetected   *prometheus.CounterVec
	AlertsCreated        *prometheus.CounterVec
	AlertsMerged         *prometheus.CounterVec
	AlertWriteFailures   prometheus.Counter
	BroadcastFailures    prometheus.Counter
	RateLimitDenied      *prometheus.CounterVec
}

func New() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.MeasurementsIngested,
		m.ViolationsDetected,
		m.AlertsCreated,
		m.AlertsMerged,
		m.AlertWriteFailures,
		m.BroadcastFailures,
		m.RateLimitDenied,
	)
	return m
}

// NewUnregistered builds instruments without touching the default registry,
// for tests that construct multiple services.
func NewUnregistered() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		MeasurementsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_measurements_ingested_total",
			Help: "Measurements accepted by the ingestion API.",
		}, []string{"source"}),
		ViolationsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_violations_detected_total",
			Help: "Threshold violations emitted by the evaluator.",
		}, []string{"type"}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_alerts_created_total",
			Help: "New alert rows inserted by the deduplicating writer.",
		}, []string{"type", "severity"}),
		AlertsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_alerts_merged_total",
			Help: "Violations merged into an existing open alert.",
		}, []string{"type", "severity"}),
		AlertWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vantage_alert_write_failures_total",
			Help: "Alert inserts or updates dropped after a store failure.",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vantage_alert_broadcast_failures_total",
			Help: "Alert broadcasts dropped after a publish failure.",
		}),
		RateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vantage_rate_limit_denied_total",
			Help: "Ingestion requests rejected by the rate limiter.",
		}, []string{"scope"}),
	}
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
