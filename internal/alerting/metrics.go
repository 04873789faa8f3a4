package alerting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts per-recipient deliveries. A nil *Metrics records nothing.
type Metrics struct {
	deliveries *prometheus.CounterVec
	duration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_alert_deliveries_total",
			Help: "Alert notifications by result",
		}, []string{"result"}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "logdata_alert_dispatch_duration_seconds",
			Help:    "Time to fan an alert out to every recipient",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) recordDelivery(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.deliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) observeDispatch(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}
