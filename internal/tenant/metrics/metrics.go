package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the tenant directory. Methods on a nil *Metrics are no-ops.
type Metrics struct {
	TenantsRegistered    prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	RegistrationEmails   *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		TenantsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "logdata_tenants_registered_total",
			Help: "Total number of companies registered",
		}),
		RegistrationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_registration_failures_total",
			Help: "Rejected company registrations by error code",
		}, []string{"code"}),
		RegistrationEmails: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "logdata_registration_emails_total",
			Help: "Registration token emails by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementTenantsRegistered() {
	if m == nil {
		return
	}
	m.TenantsRegistered.Inc()
}

func (m *Metrics) IncrementRegistrationFailure(code string) {
	if m == nil {
		return
	}
	m.RegistrationFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementRegistrationEmail(sent bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.RegistrationEmails.WithLabelValues(result).Inc()
}
