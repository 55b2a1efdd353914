// Package metrics holds the planner's Prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interest service
	InterestRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_interest_rounds_total",
			Help: "Interest fetch rounds by outcome",
		},
		[]string{"outcome"}, // "primary", "secondary", "failed", "cancelled"
	)

	InterestEndpointRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_interest_endpoint_requests_total",
			Help: "Requests to the interest endpoints by endpoint and result",
		},
		[]string{"endpoint", "result"}, // endpoint: primary|secondary; result: ok|error|timeout
	)

	InterestEndpointDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_interest_endpoint_duration_seconds",
			Help:    "Latency of interest endpoint requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint"},
	)

	InterestMalformedPayloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_interest_malformed_payloads_total",
			Help: "Interest responses that did not match the expected schema",
		},
	)

	InterestCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_interest_cache_hits_total",
			Help: "Interest lookups served from the cache",
		},
	)

	InterestCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_interest_cache_misses_total",
			Help: "Interest lookups that went to the endpoints",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// Assembly
	AssemblyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_assembly_duration_seconds",
			Help:    "Duration of plan assemblies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"track", "status"},
	)

	PlacementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_placements_total",
			Help: "Slots filled per assembly stage",
		},
		[]string{"stage"}, // "interest", "random", "unfillable"
	)

	UnmetCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_unmet_categories_total",
			Help: "Graduation categories left unmet after fulfilment",
		},
		[]string{"category"},
	)

	// Persistence
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_store_operations_total",
			Help: "Plan store operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordInterestRequest records one endpoint request.
func RecordInterestRequest(endpoint, result string, duration time.Duration) {
	InterestEndpointRequests.WithLabelValues(endpoint, result).Inc()
	InterestEndpointDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordInterestRound records how a fetch round ended.
func RecordInterestRound(outcome string) {
	InterestRounds.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records an interest cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		InterestCacheHits.Inc()
		return
	}
	InterestCacheMisses.Inc()
}

// SetBreakerState publishes a circuit breaker state.
func SetBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAssembly records one assembly and its placement counts.
func RecordAssembly(track string, duration time.Duration, err error, interest, random, unfillable int, unmet []string) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AssemblyDuration.WithLabelValues(track, status).Observe(duration.Seconds())
	PlacementsTotal.WithLabelValues("interest").Add(float64(interest))
	PlacementsTotal.WithLabelValues("random").Add(float64(random))
	PlacementsTotal.WithLabelValues("unfillable").Add(float64(unfillable))
	for _, c := range unmet {
		UnmetCategories.WithLabelValues(c).Inc()
	}
}

// RecordStoreOperation records a plan store call.
func RecordStoreOperation(backend, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, result).Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
