// Package observability registers the Prometheus metrics of the
// orchestration core. Business metrics are exported as package variables and
// updated from the service and resilience layers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts transition attempts by action and outcome
	// (committed, invalid, unauthorized, failed).
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportflow_transitions_total",
			Help: "Transition attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// CacheHitsTotal / CacheMissesTotal track read-through behavior of the
	// export record store.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportflow_cache_hits_total",
		Help: "Export store cache hits",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportflow_cache_misses_total",
		Help: "Export store cache misses",
	})

	// LedgerRetriesTotal counts gateway retry attempts by operation.
	LedgerRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportflow_ledger_retries_total",
			Help: "Ledger gateway retries by operation",
		},
		[]string{"operation"},
	)

	// BreakerOpen is 1 while the named operation's circuit is open.
	BreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exportflow_breaker_open",
			Help: "Circuit breaker state by operation (1 = open)",
		},
		[]string{"operation"},
	)

	// AuditAppendFailuresTotal counts audit writes that were dropped. A
	// failing audit sink never fails the business response, so this counter
	// is the only signal.
	AuditAppendFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportflow_audit_append_failures_total",
		Help: "Audit entries that could not be persisted",
	})

	// NotificationsDroppedTotal counts events dropped because a subscriber
	// buffer was full.
	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportflow_notifications_dropped_total",
		Help: "Transition events dropped for slow subscribers",
	})

	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportflow_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exportflow_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
