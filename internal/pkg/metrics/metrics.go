package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tourmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tourmap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Explorer engine metrics
	MarkerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "markers",
		Name:      "operations_total",
		Help:      "Marker operations applied to map surfaces",
	}, []string{"op"}) // create | restyle | remove | skip | fail

	SyncPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "markers",
		Name:      "sync_passes_total",
		Help:      "Marker synchronization passes by outcome",
	}, []string{"outcome"}) // applied | deferred | coalesced

	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tourmap",
		Subsystem: "markers",
		Name:      "sync_duration_seconds",
		Help:      "Duration of one reconciliation pass",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	RouteUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "route",
		Name:      "updates_total",
		Help:      "Route overlay draws and removals",
	}, []string{"action"})

	GeolocationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "geolocation",
		Name:      "results_total",
		Help:      "Geolocation acquisitions by outcome",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tourmap",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Current number of live exploration sessions",
	})

	QueryResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tourmap",
		Subsystem: "query",
		Name:      "result_size",
		Help:      "Number of places returned per query",
		Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 100},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Insights (event consumer)
	ExplorerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "insights",
		Name:      "events_total",
		Help:      "Explorer events consumed by kind and city",
	}, []string{"kind", "city"})

	PlaceSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourmap",
		Subsystem: "insights",
		Name:      "place_selections_total",
		Help:      "Place selections by city and place",
	}, []string{"city", "place_id"})

	RouteDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tourmap",
		Subsystem: "insights",
		Name:      "route_distance_km",
		Help:      "Straight-line distance of drawn routes",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"city"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
