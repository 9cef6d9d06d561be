package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerEntriesTotal counts committed wallet mutations by entry kind.
	LedgerEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulseware",
		Name:      "ledger_entries_total",
		Help:      "Committed ledger entries by kind.",
	}, []string{"kind"})

	// WebhookEventsTotal counts inbound payment webhook deliveries by outcome.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulseware",
		Name:      "webhook_events_total",
		Help:      "Payment webhook deliveries by processing outcome.",
	}, []string{"outcome"})

	// SignupsTotal counts completed facility onboardings.
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulseware",
		Name:      "signups_total",
		Help:      "Completed facility signups.",
	})
)
