package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline run outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeNoData           = "no_data"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeInvalidSelection = "invalid_selection"
	OutcomeFitError         = "fit_error"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pipelineRuns    *prometheus.CounterVec
	fitDuration     prometheus.Histogram
	uploadRows      prometheus.Histogram
	sessionsActive  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecast_studio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forecast_studio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	pipelineRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecast_studio",
			Name:      "pipeline_runs_total",
			Help:      "Total pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
	fitDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forecast_studio",
			Name:      "fit_duration_seconds",
			Help:      "Time spent fitting and predicting one series.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	uploadRows := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forecast_studio",
			Name:      "upload_rows",
			Help:      "Distribution of rows per loaded table.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
	)
	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forecast_studio",
			Name:      "sessions_active",
			Help:      "Number of live sessions.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		pipelineRuns,
		fitDuration,
		uploadRows,
		sessionsActive,
	)

	return &Metrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		pipelineRuns:    pipelineRuns,
		fitDuration:     fitDuration,
		uploadRows:      uploadRows,
		sessionsActive:  sessionsActive,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) RecordRun(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFit(d time.Duration) {
	m.fitDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveUpload(rows int) {
	m.uploadRows.Observe(float64(rows))
}

func (m *Metrics) SetSessions(n int) {
	m.sessionsActive.Set(float64(n))
}
