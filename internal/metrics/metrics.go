// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oesreport_build_info",
			Help: "Build information of the OES report service",
		},
		[]string{"version", "commit"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oesreport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oesreport_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oesreport_runs_total",
			Help: "Total number of report runs",
		},
		[]string{"status"}, // "success", "error", "rejected"
	)

	ReportRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oesreport_run_duration_seconds",
			Help:    "Duration of report runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
	)

	ReportRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oesreport_rows_total",
			Help: "Total number of data rows processed",
		},
	)

	ReportDiagnosticsPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oesreport_diagnostics_per_run",
			Help:    "Number of diagnostics found per run",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	ReportsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oesreport_runs_in_flight",
			Help: "Number of report runs currently being generated",
		},
	)

	RenderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oesreport_render_total",
			Help: "Total number of rendered reports",
		},
		[]string{"format", "status"},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordRun records the outcome of one report run.
func RecordRun(duration time.Duration, rows, diagnostics int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ReportRunsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return
	}
	ReportRunDuration.Observe(duration.Seconds())
	ReportRowsTotal.Add(float64(rows))
	ReportDiagnosticsPerRun.Observe(float64(diagnostics))
}

// RecordRejected counts a run turned away by the concurrency limiter.
func RecordRejected() {
	ReportRunsTotal.WithLabelValues("rejected").Inc()
}

// RecordRender counts one render attempt.
func RecordRender(format string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RenderTotal.WithLabelValues(format, status).Inc()
}
