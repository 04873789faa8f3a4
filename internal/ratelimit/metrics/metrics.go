package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
	Degraded  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_rate_limit_decisions_total",
			Help: "Rate limit decisions by scope and outcome",
		}, []string{"scope", "outcome"}),
		Degraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "logdata_rate_limit_store_degraded",
			Help: "1 while the shared rate limit store is bypassed for the in-memory fallback",
		}),
	}
}

func (m *Metrics) IncrementDecision(scope string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.Decisions.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
