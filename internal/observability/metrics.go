package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginLocked  = "locked"
)

// Metrics holds the service's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	accounts          *prometheus.CounterVec
	requestsSubmitted *prometheus.CounterVec
	guestsCreated     prometheus.Counter
	logins            *prometheus.CounterVec
	lockouts          prometheus.Counter
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "townhall_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_http_errors_total",
			Help: "HTTP error responses by route, method and error code.",
		}, []string{"method", "path", "code"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_accounts_total",
			Help: "Registration outcomes.",
		}, []string{"outcome"}),
		requestsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_requests_submitted_total",
			Help: "Service requests recorded, by category.",
		}, []string{"category"}),
		guestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "townhall_guests_created_total",
			Help: "Guest accounts minted by request intake.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "townhall_login_attempts_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "townhall_lockouts_total",
			Help: "Identifiers locked after repeated failures.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.errors,
		m.accounts,
		m.requestsSubmitted,
		m.guestsCreated,
		m.logins,
		m.lockouts,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordAccount counts a registration outcome: created, upgraded or conflict.
func (m *Metrics) RecordAccount(outcome string) {
	if m == nil {
		return
	}
	m.accounts.WithLabelValues(outcome).Inc()
}

// RecordRequestSubmitted counts an accepted service request.
func (m *Metrics) RecordRequestSubmitted(category string, guestCreated bool) {
	if m == nil {
		return
	}
	m.requestsSubmitted.WithLabelValues(category).Inc()
	if guestCreated {
		m.guestsCreated.Inc()
	}
}

// RecordLogin counts a login attempt result.
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// RecordLockout counts a lock transition.
func (m *Metrics) RecordLockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}
