package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// ServerMetrics holds the HTTP and domain collectors. Each instance owns its
// registry so several apps can live in one process (tests).
type ServerMetrics struct {
	registry *prometheus.Registry

	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	OrdersPlaced prometheus.Counter
	OrdersFailed *prometheus.CounterVec
	Payments     *prometheus.CounterVec
	RateLimited  prometheus.Counter
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Orders persisted successfully.",
	})
	ordersFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "orders_failed_total",
		Help:      "Order placements rejected, by error code.",
	}, []string{"code"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "payments_total",
		Help:      "Payment operations by provider, stage and outcome.",
	}, []string{"provider", "stage", "outcome"})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		requests, latency, ordersPlaced, ordersFailed, payments, rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &ServerMetrics{
		registry:     reg,
		Requests:     requests,
		LatencyMS:    latency,
		OrdersPlaced: ordersPlaced,
		OrdersFailed: ordersFailed,
		Payments:     payments,
		RateLimited:  rateLimited,
	}
}

// Registry exposes the underlying registry for tests.
func (m *ServerMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePayment is nil-safe so services can run without metrics.
func (m *ServerMetrics) ObservePayment(provider, stage string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Payments.WithLabelValues(provider, stage, outcome).Inc()
}

func (m *ServerMetrics) ObserveOrder(code string) {
	if m == nil {
		return
	}
	if code == "" {
		m.OrdersPlaced.Inc()
		return
	}
	m.OrdersFailed.WithLabelValues(code).Inc()
}
