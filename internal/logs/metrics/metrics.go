package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// knownLevels bounds the level label; anything else is reported as "other".
var knownLevels = map[string]struct{}{
	"DEBUG": {}, "INFO": {}, "WARN": {}, "WARNING": {}, "ERROR": {}, "CRITICAL": {},
}

// Metrics for log ingestion and search. Methods on a nil *Metrics are no-ops.
type Metrics struct {
	LogsIngested   *prometheus.CounterVec
	AlertOutcomes  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	SearchResults  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		LogsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_logs_ingested_total",
			Help: "Stored log records by level",
		}, []string{"level"}),
		AlertOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_log_alerts_total",
			Help: "Alert outcome per ingested log",
		}, []string{"alert"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "logdata_log_search_duration_seconds",
			Help:    "Latency of log searches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "logdata_log_search_results",
			Help:    "Number of records returned per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),
	}
}

func (m *Metrics) IncrementIngested(level string) {
	if m == nil {
		return
	}
	if _, ok := knownLevels[level]; !ok {
		level = "other"
	}
	m.LogsIngested.WithLabelValues(level).Inc()
}

func (m *Metrics) IncrementAlert(status string) {
	if m == nil {
		return
	}
	m.AlertOutcomes.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSearch(start time.Time, results int) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(time.Since(start).Seconds())
	m.SearchResults.Observe(float64(results))
}
