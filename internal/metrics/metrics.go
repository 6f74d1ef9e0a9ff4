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
	CertificatesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "certgen",
			Name:      "certificates_rendered_total",
			Help:      "Certificate files produced, by format.",
		},
		[]string{"format"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "certgen",
			Name:      "render_duration_seconds",
			Help:      "Time to render and encode one certificate.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	BulkJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "certgen",
			Name:      "bulk_jobs_total",
			Help:      "Bulk jobs finished, by status.",
		},
		[]string{"status"},
	)

	BulkRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "certgen",
			Name:      "bulk_rows_total",
			Help:      "Bulk table rows handled, by result.",
		},
		[]string{"result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "certgen",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records request latency labelled by the matched chi route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
