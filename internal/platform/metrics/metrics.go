// Package metrics holds the Prometheus collectors exported by the gallery API.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	identifiersGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "identifiers",
			Name:      "generated_total",
			Help:      "Two-word identifiers issued, by purpose.",
		},
		[]string{"purpose"},
	)

	identifierConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "identifiers",
			Name:      "storage_conflicts_total",
			Help:      "Generated identifiers rejected by the storage uniqueness constraint.",
		},
	)

	identifierExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "identifiers",
			Name:      "capacity_exhausted_total",
			Help:      "Generation requests that exceeded the remaining identifier capacity.",
		},
	)

	artEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "art",
			Name:      "events_total",
			Help:      "Art piece lifecycle events.",
		},
		[]string{"event"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		identifiersGenerated,
		identifierConflicts,
		identifierExhausted,
		artEvents,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled by their chi route pattern so path parameters do not
// explode label cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordIdentifiersGenerated counts identifiers issued for purpose
// ("submission" or "backfill").
func RecordIdentifiersGenerated(purpose string, count int) {
	if count <= 0 {
		return
	}
	identifiersGenerated.WithLabelValues(purpose).Add(float64(count))
}

// RecordIdentifierConflict counts a storage-level identifier collision.
func RecordIdentifierConflict() {
	identifierConflicts.Inc()
}

// RecordIdentifierExhausted counts a request refused for lack of capacity.
func RecordIdentifierExhausted() {
	identifierExhausted.Inc()
}

// RecordArtEvent counts "submitted", "minted" or "seeded" events.
func RecordArtEvent(event string) {
	artEvents.WithLabelValues(event).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
