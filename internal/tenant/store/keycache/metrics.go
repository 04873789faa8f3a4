package keycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Metrics counts cache lookups by result. A nil *Metrics records nothing.
type Metrics struct {
	lookups *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_public_key_cache_lookups_total",
			Help: "Tenant public key cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) recordLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}
