package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/teemow/meetbook/internal/instrumentation"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestMetrics records a duration and status per route and logs each request.
func requestMetrics(metrics *instrumentation.Metrics, logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := routeTemplate(r)
			duration := time.Since(start)
			metrics.RecordHTTPRequest(r.Context(), r.Method, route, rec.status, duration)
			logger.Debug("http request",
				"method", r.Method,
				"route", route,
				"status", rec.status,
				"duration", duration)
		})
	}
}

// routeTemplate keeps metric labels bounded by using the matched route pattern.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
