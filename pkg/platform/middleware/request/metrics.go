package request

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "logdata_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(durationSeconds)
}
