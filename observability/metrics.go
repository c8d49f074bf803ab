package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "learnchain"

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	learningMetricsOnce sync.Once
	learningRegistry    *LearningMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC method activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of one JSON-RPC call. A zero code means success.
func (m *moduleMetrics) Observe(method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// LearningMetrics tracks state transitions and token issuance.
type LearningMetrics struct {
	transactions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	completions  prometheus.Counter
	minted       prometheus.Counter
	burned       prometheus.Counter
	totalMinted  prometheus.Gauge
	supplyCap    prometheus.Gauge
}

// Learning returns the singleton registry for transition metrics.
func Learning() *LearningMetrics {
	learningMetricsOnce.Do(func() {
		learningRegistry = &LearningMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transitions",
				Name:      "total",
				Help:      "Count of submitted transactions segmented by type and outcome.",
			}, []string{"type", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "transitions",
				Name:      "duration_seconds",
				Help:      "Latency distribution for state transitions including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"type"}),
			completions: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "learning",
				Name:      "completions_total",
				Help:      "Count of committed course completions.",
			}),
			minted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "token",
				Name:      "minted_total",
				Help:      "Base units minted as course rewards.",
			}),
			burned: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "token",
				Name:      "burned_total",
				Help:      "Base units burned by holders.",
			}),
			totalMinted: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "token",
				Name:      "cumulative_minted",
				Help:      "Cumulative issuance recorded by the mint configuration.",
			}),
			supplyCap: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "token",
				Name:      "supply_cap",
				Help:      "Configured supply cap of the reward mint.",
			}),
		}
		prometheus.MustRegister(
			learningRegistry.transactions,
			learningRegistry.latency,
			learningRegistry.completions,
			learningRegistry.minted,
			learningRegistry.burned,
			learningRegistry.totalMinted,
			learningRegistry.supplyCap,
		)
	})
	return learningRegistry
}

// ObserveTransition records the outcome of a submitted transaction.
func (m *LearningMetrics) ObserveTransition(txType string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(txType)
	if label == "" {
		label = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.transactions.WithLabelValues(label, outcome).Inc()
	m.latency.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCompletion counts a committed completion and the reward it minted.
func (m *LearningMetrics) RecordCompletion(tokens uint64) {
	if m == nil {
		return
	}
	m.completions.Inc()
	m.minted.Add(float64(tokens))
}

// RecordBurn counts burned base units.
func (m *LearningMetrics) RecordBurn(amount uint64) {
	if m == nil {
		return
	}
	m.burned.Add(float64(amount))
}

// SetSupply publishes the current issuance totals.
func (m *LearningMetrics) SetSupply(totalMinted, supplyCap uint64) {
	if m == nil {
		return
	}
	m.totalMinted.Set(float64(totalMinted))
	m.supplyCap.Set(float64(supplyCap))
}
