package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketauth"

// Metrics holds the service counters. A nil *Metrics is a no-op.
type Metrics struct {
	Signups              prometheus.Counter
	Logins               *prometheus.CounterVec
	OTPVerifications     *prometheus.CounterVec
	RoleChanges          *prometheus.CounterVec
	OTPDeliveryFailures  prometheus.Counter
	HTTPRequestsDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers all counters on reg
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Signups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup requests that staged a pending user",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "OTP checks by purpose and result",
		}, []string{"purpose", "result"}),
		RoleChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_changes_total",
			Help:      "Committed role transitions",
		}, []string{"from", "to"}),
		OTPDeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_delivery_failures_total",
			Help:      "OTP emails that could not be handed to the provider",
		}),
		HTTPRequestsDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SignupStaged counts a signup parked as a temp user awaiting its OTP.
func (m *Metrics) SignupStaged() {
	if m == nil {
		return
	}
	m.Signups.Inc()
}

// Login counts a login attempt by outcome (success, pending, failure or oauth).
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// OTPVerification counts an OTP check for the given purpose and result.
func (m *Metrics) OTPVerification(purpose, result string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(purpose, result).Inc()
}

// RoleChanged counts a committed role transition.
func (m *Metrics) RoleChanged(from, to string) {
	if m == nil {
		return
	}
	m.RoleChanges.WithLabelValues(from, to).Inc()
}

// DeliveryFailed counts an OTP email the mail provider did not accept.
func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.OTPDeliveryFailures.Inc()
}

// ObserveRequest records the latency of one HTTP request under its route template.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsDuration.WithLabelValues(method, route, status).Observe(seconds)
}
