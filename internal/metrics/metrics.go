// Package metrics holds the Prometheus collectors of the custody service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "custody",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "settlement",
			Name:      "transactions_total",
			Help:      "Settled transactions by asset kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "custody",
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Time from build to recorded receipt.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"kind"},
	)

	provisioningFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "provisioning",
			Name:      "stage_failures_total",
			Help:      "Provisioning failures by the stage being attempted.",
		},
		[]string{"stage"},
	)

	walletsProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "provisioning",
			Name:      "wallets_completed_total",
			Help:      "Wallets that reached the final provisioning state.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		settlements,
		settlementDuration,
		provisioningFailures,
		walletsProvisioned,
	)
}

// Handler exposes Registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest counts one handled request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Settlement outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeReverted = "reverted"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
)

// RecordSettlement counts one settlement attempt.
func RecordSettlement(kind, outcome string, d time.Duration) {
	settlements.WithLabelValues(kind, outcome).Inc()
	settlementDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordProvisioningFailure counts a failed provisioning stage.
func RecordProvisioningFailure(stage string) {
	provisioningFailures.WithLabelValues(stage).Inc()
}

// RecordWalletProvisioned counts a wallet reaching its final state.
func RecordWalletProvisioned() {
	walletsProvisioned.Inc()
}
