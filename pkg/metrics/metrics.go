// Package metrics provides the centralized Prometheus registry. All
// metrics are defined in their owning packages (gate, provider, market,
// session) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registerer. All metrics are
// automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Gate Metrics (pkg/gate):
//   - gate_tasks_scheduled_total{gate} (Counter): Tasks admitted through each gate
//   - gate_wait_seconds{gate} (Histogram): Time spent queued before admission
//   - gate_in_flight_tasks{gate} (Gauge): Tasks currently executing
//
// Provider Metrics (pkg/provider):
//   - provider_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - provider_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - provider_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Market Metrics (pkg/market):
//   - market_queries_total{market, outcome} (Counter): Per-market aggregation outcomes
//     (success, empty, failed)
//
// Session Metrics (pkg/session):
//   - sessions_active (Gauge): Sessions currently live in the store
//   - sessions_total{event} (Counter): Lifecycle events (created, expired, consumed, deleted)
//
// Example Prometheus Queries:
//
//   # Gate queue pressure
//   histogram_quantile(0.95, rate(gate_wait_seconds_bucket[5m]))
//
//   # Per-market failure rate
//   rate(market_queries_total{outcome="failed"}[5m])
//
//   # Request error rate
//   rate(provider_errors_total[5m])
//
//   # Session expiry without use
//   rate(sessions_total{event="expired"}[5m]) / rate(sessions_total{event="created"}[5m])
