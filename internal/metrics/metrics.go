// Package metrics holds the Prometheus collectors of the authentication
// server.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "snippet_keeper"

// Options configures [New].
type Options struct {
	// Registerer receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	Namespace  string
	Buckets    []float64
}

// Metrics exposes the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge

	// AuthOutcomes counts auth operations by operation and outcome, where
	// outcome is "success" or an error kind such as "account_locked".
	AuthOutcomes *prometheus.CounterVec

	RateLimited      prometheus.Counter
	ResetTokensSwept prometheus.Counter
}

// New constructs the collectors and registers them. Collectors that are
// already registered under the same name are reused.
func New(opts Options) (*Metrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	var (
		m   Metrics
		err error
	)

	if m.Requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests partitioned by method, route, and status code.",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}

	if m.Duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Histogram of HTTP request latencies in seconds partitioned by method, route, and status code.",
		Buckets:   buckets,
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}

	if m.InFlight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})); err != nil {
		return nil, err
	}

	if m.AuthOutcomes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "outcomes_total",
		Help:      "Auth operations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})); err != nil {
		return nil, err
	}

	if m.RateLimited, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})); err != nil {
		return nil, err
	}

	if m.ResetTokensSwept, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workers",
		Name:      "reset_tokens_swept_total",
		Help:      "Expired password-reset tokens deleted by the sweeper.",
	})); err != nil {
		return nil, err
	}

	return &m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
		return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
	}

	return c, fmt.Errorf("register collector: %w", err)
}

// RecordAuthOutcome counts one finished auth operation.
func (m *Metrics) RecordAuthOutcome(operation, outcome string) {
	if m == nil || m.AuthOutcomes == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordRateLimited() {
	if m == nil || m.RateLimited == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) RecordResetTokensSwept(n int64) {
	if m == nil || m.ResetTokensSwept == nil || n <= 0 {
		return
	}
	m.ResetTokensSwept.Add(float64(n))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
// Nil means prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
