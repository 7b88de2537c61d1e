// Package metrics registers the kiosk's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_content_fetch_total",
		Help: "Content API lookups by kind and outcome.",
	}, []string{"kind", "outcome"})

	registrationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_visitor_registration_total",
		Help: "Visitor registration submissions by outcome.",
	}, []string{"outcome"})
)

// Fetch records a content lookup. Kind is "landing" or "exhibit"; outcome is
// "ok" or "error".
func Fetch(kind, outcome string) {
	fetchTotal.WithLabelValues(kind, outcome).Inc()
}

// Registration records a visitor registration outcome ("ok", "rejected" or
// "error").
func Registration(outcome string) {
	registrationTotal.WithLabelValues(outcome).Inc()
}
