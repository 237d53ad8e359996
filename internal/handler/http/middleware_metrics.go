package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const unmatchedRoute = "unmatched"

// withMetrics records request count, latency and in-flight requests labelled
// by the chi route pattern, so that path parameters such as reset tokens
// never become label values.
func (h *Handler) withMetrics(next http.Handler) http.Handler {
	m := h.opts.Metrics
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		mw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(mw, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(mw.statusCode())
		m.Requests.WithLabelValues(r.Method, route, status).Inc()
		m.Duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}
