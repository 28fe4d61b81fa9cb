package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP layer and the
// stock ledger. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	restocks        prometheus.Counter
	checkouts       *prometheus.CounterVec
	unitsSold       prometheus.Counter
	reversals       prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polycare_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polycare_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	restocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polycare_ledger_restocks_total",
		Help: "Batches received.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polycare_ledger_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polycare_ledger_units_sold_total",
		Help: "Units deducted from batches by checkout.",
	})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polycare_ledger_reversals_total",
		Help: "Sales reversed.",
	})
	registry.MustRegister(requests, duration, restocks, checkouts, unitsSold, reversals)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		restocks:        restocks,
		checkouts:       checkouts,
		unitsSold:       unitsSold,
		reversals:       reversals,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency under the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

func (m *Metrics) RestockRecorded() {
	if m == nil {
		return
	}
	m.restocks.Inc()
}

// CheckoutRecorded counts a checkout attempt; units is only added for
// successful ones.
func (m *Metrics) CheckoutRecorded(outcome string, units float64) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	if units > 0 {
		m.unitsSold.Add(units)
	}
}

func (m *Metrics) ReversalRecorded() {
	if m == nil {
		return
	}
	m.reversals.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
