// Package metrics exposes session transitions to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Session records session transitions.  It satisfies session.Recorder.
type Session struct {
	transitions   *prometheus.CounterVec
	authenticated prometheus.Gauge
}

// NewSession registers the session collectors on reg.
func NewSession(reg prometheus.Registerer) *Session {
	m := &Session{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session transitions by operation and outcome.",
		}, []string{"op", "outcome"}),
		authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lms",
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 while the client holds an authenticated session.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions, m.authenticated)
	}
	return m
}

func (m *Session) Transition(op, outcome string) {
	m.transitions.WithLabelValues(op, outcome).Inc()
}

func (m *Session) Authenticated(ok bool) {
	if ok {
		m.authenticated.Set(1)
		return
	}
	m.authenticated.Set(0)
}
