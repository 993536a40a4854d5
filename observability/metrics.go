// Package observability exposes the relay's Prometheus metrics.
// Responder failures never reach chat participants, so the counters
// here are the only place operators can see them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_posted_total",
		Help: "Messages appended to the ledger, by sender kind.",
	}, []string{"kind"})

	ResponderInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_responder_invocations_total",
		Help: "Responder capability invocations.",
	}, []string{"personality"})

	ResponderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_responder_failures_total",
		Help: "Responder invocations that returned an error; surfaced to users as silence.",
	}, []string{"personality"})

	ResponderSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_responder_suppressed_total",
		Help: "Responder replies dropped by the acceptance filter.",
	}, []string{"personality"})

	ConnectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connected_sessions",
		Help: "Currently open realtime connections.",
	})

	ProcessResidentBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_process_resident_bytes",
		Help: "Resident memory of the relay process.",
	})

	ProcessCPUPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_process_cpu_percent",
		Help: "CPU usage of the relay process.",
	})
)
