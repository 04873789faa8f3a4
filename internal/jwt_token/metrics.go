package jwttoken

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts log-token verification outcomes by the stage they ended at.
type Metrics struct {
	Outcomes *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_log_token_verifications_total",
			Help: "Log-submission token verifications by final stage and result code",
		}, []string{"stage", "code"}),
	}
}

func (m *Metrics) ObserveLogTokenOutcome(stage Stage, code string) {
	m.Outcomes.WithLabelValues(string(stage), code).Inc()
}
