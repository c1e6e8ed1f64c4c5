// Package metrics exposes Prometheus collectors for conversions and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Conversion metrics
	PointsTransformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "transform",
		Name:      "points_total",
		Help:      "Points successfully transformed to WGS84",
	}, []string{"system"})

	TransformFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "transform",
		Name:      "failures_total",
		Help:      "Points that could not be transformed",
	}, []string{"system"})

	PointsOutOfBounds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "transform",
		Name:      "out_of_bounds_total",
		Help:      "Transformed points outside the plausibility envelope",
	}, []string{"system"})

	TracksNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "track",
		Name:      "normalized_total",
		Help:      "Tracks normalized, by outcome",
	}, []string{"system", "outcome"})

	DocumentsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "export",
		Name:      "documents_total",
		Help:      "Documents serialized, by format and mode",
	}, []string{"format", "mode"})

	PreviewsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "preview",
		Name:      "images_total",
		Help:      "Preview images rendered, by image format",
	}, []string{"format"})

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tra2kml",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tra2kml",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// ObserveTrack records the per-point outcome of one normalized track.
func ObserveTrack(system string, resolved, unresolved, outOfBounds int) {
	PointsTransformed.WithLabelValues(system).Add(float64(resolved))
	TransformFailures.WithLabelValues(system).Add(float64(unresolved))
	PointsOutOfBounds.WithLabelValues(system).Add(float64(outOfBounds))
}

// ObserveHTTP records one served request. path should be the route pattern,
// not the raw URL, to keep label cardinality bounded.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
