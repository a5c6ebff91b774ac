// metrics.go — Prometheus HTTP метрики serverReport.
// Регистрирует метрики: sr_http_requests_total, sr_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sr_http_requests_total",
			Help: "Общее количество HTTP-запросов к serverReport",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sr_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к serverReport в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на шаблонные сегменты,
// чтобы кардинальность лейбла path оставалась ограниченной.
// /api/reports/42 → /api/reports/{id}
// /api/integrations/discord/123456 → /api/integrations/{platform}/{externalUserId}
func normalizePath(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || segs[0] != "api" {
		return path
	}

	switch {
	// /api/reports/{id}
	case len(segs) == 3 && segs[1] == "reports":
		return "/api/reports/{id}"
	// /api/admin/users/{userId}/reports
	case len(segs) == 5 && segs[1] == "admin" && segs[2] == "users" && segs[4] == "reports":
		return "/api/admin/users/{userId}/reports"
	// /api/admin/reports/{id}/status
	case len(segs) == 5 && segs[1] == "admin" && segs[2] == "reports" && segs[4] == "status":
		return "/api/admin/reports/{id}/status"
	// /api/integrations/{platform}/{externalUserId}
	case len(segs) == 4 && segs[1] == "integrations":
		return "/api/integrations/{platform}/{externalUserId}"
	}
	return path
}
