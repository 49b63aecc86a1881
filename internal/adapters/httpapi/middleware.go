package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kvetinski/contacts/internal/telemetry"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMetrics records and logs every request by its route pattern.
func requestMetrics(next http.Handler, metrics *telemetry.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		metrics.IncHTTPInFlight()
		defer metrics.DecHTTPInFlight()

		next.ServeHTTP(rec, r)

		// The mux fills in Pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		metrics.ObserveHTTP(route, status, time.Since(start))

		logger.Info("http request",
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
