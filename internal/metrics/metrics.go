package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkbot"

var (
	LinkResolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_resolves_total",
		Help:      "Deep-link resolutions by result (hit, miss, error).",
	}, []string{"result"})

	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Links created.",
	})

	ReportSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_submissions_total",
		Help:      "Report submissions by result (accepted, banned, limit, cooldown, invalid, error).",
	}, []string{"result"})

	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_deliveries_total",
		Help:      "Broadcast deliveries by result (success, failed).",
	}, []string{"result"})

	GateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_checks_total",
		Help:      "Subscription gate decisions (pass, blocked).",
	}, []string{"result"})

	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Inbound chat updates by kind.",
	}, []string{"kind"})
)
