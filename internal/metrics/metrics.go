// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/sickfits-server/internal/model"
)

var _ model.CheckoutMetrics = (*Checkout)(nil)

// Checkout counts checkout outcomes, captured-but-unfinished orders and
// captures with an unknown result.
type Checkout struct {
	total         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inconsistent  prometheus.Counter
	chargeUnknown prometheus.Counter
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sickfits_checkout_total",
				Help: "Checkouts by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sickfits_checkout_duration_seconds",
				Help:    "Checkout latency by outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		inconsistent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sickfits_checkout_inconsistent_total",
				Help: "Checkouts charged without a completed order",
			},
		),
		chargeUnknown: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sickfits_checkout_charge_unknown_total",
				Help: "Payment captures whose outcome could not be determined",
			},
		),
	}
	reg.MustRegister(m.total, m.duration, m.inconsistent, m.chargeUnknown)
	return m
}

func (m *Checkout) ObserveCheckout(outcome string, d time.Duration) {
	m.total.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Checkout) IncInconsistent() {
	m.inconsistent.Inc()
}

func (m *Checkout) IncChargeUnknown() {
	m.chargeUnknown.Inc()
}

// HTTP records request counts and latency per route.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sickfits_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sickfits_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTP) Observe(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
