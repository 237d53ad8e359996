package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
)

const rateLimitKeyPrefix = "auth:"

// withRateLimit allows at most RateLimitRequests requests per client IP within
// RateLimitWindow. Rejected requests get 429 with a Retry-After header. When
// the rate-limit store fails the request is let through.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	limiter := h.opts.RateLimiter
	if limiter == nil || h.opts.RateLimitRequests <= 0 || h.opts.RateLimitWindow <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)
		ip := clientIP(r)

		allowed, retryAfter, err := limiter.Allow(r.Context(), rateLimitKeyPrefix+ip, h.opts.RateLimitRequests, h.opts.RateLimitWindow, h.now())
		if err != nil {
			log.Err(err).Str("func", "*Handler.withRateLimit").Msg("rate limit check failed, letting request through")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			h.opts.Metrics.RecordRateLimited()
			log.Warn().Str("remote_ip", ip).Dur("retry_after", retryAfter).Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
			utils.WriteError(w, msgRateLimited, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds rounds d up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// clientIP returns the host part of RemoteAddr, which middleware.RealIP has
// already replaced with the forwarded address when one was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
