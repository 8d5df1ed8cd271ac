package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cruisemate"

// Metrics groups the server's collectors. Each server owns its own set so
// several instances can run in one process.
type Metrics struct {
	Logins            *prometheus.CounterVec
	Refreshes         *prometheus.CounterVec
	Registrations     *prometheus.CounterVec
	RateLimitAllowed  *prometheus.CounterVec
	RateLimitRejected *prometheus.CounterVec
	Requests          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "logins_total", Help: "Token requests by result."},
			[]string{"result"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "token_refreshes_total", Help: "Refresh token exchanges by result."},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "registrations_total", Help: "Accounts created by role."},
			[]string{"role"},
		),
		RateLimitAllowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
			[]string{"limiter"},
		),
		RateLimitRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
			[]string{"limiter"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route and status code."},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.Logins,
		m.Refreshes,
		m.Registrations,
		m.RateLimitAllowed,
		m.RateLimitRejected,
		m.Requests,
	)
	return m
}
