package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// aggregation engine.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	engine          *EngineCollector
}

// EngineCollector counts ingestion pipeline activity.
type EngineCollector struct {
	batchesTotal        prometheus.Counter
	eventsCreatedTotal  prometheus.Counter
	fallbackTotal       prometheus.Counter
	acquisitionFailures prometheus.Counter
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pulsefeed",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulsefeed",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	engine := &EngineCollector{
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsefeed",
			Subsystem: "engine",
			Name:      "batches_total",
			Help:      "Number of post batches ingested.",
		}),
		eventsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsefeed",
			Subsystem: "engine",
			Name:      "events_created_total",
			Help:      "Number of events persisted by the pipeline.",
		}),
		fallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsefeed",
			Subsystem: "engine",
			Name:      "fallback_activations_total",
			Help:      "Times the deterministic fallback clusterer was substituted.",
		}),
		acquisitionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsefeed",
			Subsystem: "engine",
			Name:      "acquisition_failures_total",
			Help:      "Failed or unusable summarization service calls.",
		}),
	}

	collectors := []prometheus.Collector{
		requestDuration,
		requestTotal,
		engine.batchesTotal,
		engine.eventsCreatedTotal,
		engine.fallbackTotal,
		engine.acquisitionFailures,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		engine:          engine,
	}, nil
}

// Engine returns the counters recorded by the ingestion pipeline.
func (c *Collector) Engine() *EngineCollector {
	return c.engine
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// BatchStarted records one ingested batch.
func (e *EngineCollector) BatchStarted() {
	if e == nil {
		return
	}
	e.batchesTotal.Inc()
}

// EventsCreated records n persisted events.
func (e *EngineCollector) EventsCreated(n int) {
	if e == nil {
		return
	}
	e.eventsCreatedTotal.Add(float64(n))
}

// FallbackUsed records one fallback substitution.
func (e *EngineCollector) FallbackUsed() {
	if e == nil {
		return
	}
	e.fallbackTotal.Inc()
}

// AcquisitionFailed records one failed summarization call.
func (e *EngineCollector) AcquisitionFailed() {
	if e == nil {
		return
	}
	e.acquisitionFailures.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
