package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for workflow decisions
const (
	OutcomeCommitted = "committed"
	OutcomeDenied    = "denied"
	OutcomeInvalid   = "invalid"
	OutcomeConflict  = "conflict"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	workflowDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_workflow_decisions_total",
			Help: "Moderation workflow outcomes by operation.",
		},
		[]string{"op", "outcome"},
	)

	registerOnce sync.Once
)

// Init registers the collectors in the default registry. Safe to call twice.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, workflowDecisions)
	})
}

// Handler serves the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Decision counts one workflow outcome
func Decision(op, outcome string) {
	workflowDecisions.WithLabelValues(op, outcome).Inc()
}

// Class maps an error family to an outcome label
type Class struct {
	Err     error
	Outcome string
}

// Observe counts the outcome of op; the first class matching err wins
func Observe(op string, err error, classes ...Class) {
	Decision(op, OutcomeFor(err, classes...))
}

// OutcomeFor returns the outcome label for err
func OutcomeFor(err error, classes ...Class) string {
	if err == nil {
		return OutcomeCommitted
	}
	for _, c := range classes {
		if errors.Is(err, c.Err) {
			return c.Outcome
		}
	}
	return OutcomeError
}

// Instrument records RPS, latency and in-flight requests.
// Paths are labelled with the chi route pattern to keep cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := routePattern(r)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
