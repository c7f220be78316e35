package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lfbag"

// Metrics holds the storefront collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	requests           *prometheus.HistogramVec
	checkoutDuration   *prometheus.HistogramVec
	checkoutOutcomes   *prometheus.CounterVec
	cartMutations      *prometheus.CounterVec
	dependencyFailures *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of served HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_submit_duration_seconds",
		Help:      "Duration of checkout submissions in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"payment_method"})
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkout submissions by payment method and final status.",
	}, []string{"payment_method", "status"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})
	dependencyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dependency_failures_total",
		Help:      "Failed calls to upstream services.",
	}, []string{"dependency"})
	reg.MustRegister(requests, checkoutDuration, checkoutOutcomes, cartMutations, dependencyFailures)
	return &Metrics{
		requests:           requests,
		checkoutDuration:   checkoutDuration,
		checkoutOutcomes:   checkoutOutcomes,
		cartMutations:      cartMutations,
		dependencyFailures: dependencyFailures,
	}
}

// ObserveRequest records one served request under its route pattern.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveCheckout records a finished submission.
func (m *Metrics) ObserveCheckout(paymentMethod, status string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	method := normalizeLabel(paymentMethod)
	m.checkoutDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.checkoutOutcomes.WithLabelValues(method, normalizeLabel(status)).Inc()
}

// IncCartMutation counts a persisted cart change.
func (m *Metrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncDependencyFailure counts a failed upstream call.
func (m *Metrics) IncDependencyFailure(dependency string) {
	if m == nil || m.dependencyFailures == nil {
		return
	}
	m.dependencyFailures.WithLabelValues(normalizeLabel(dependency)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
