package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/metrics"
	"github.com/MKhiriev/snippet-keeper/internal/service"
	"github.com/MKhiriev/snippet-keeper/internal/store"
)

// Options carries the transport settings and collaborators of [Handler]
// that do not belong to the service layer.
type Options struct {
	// RateLimiter counts requests to /api/auth per client IP. Nil disables
	// rate limiting.
	RateLimiter       store.RateLimitStore
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// RequestTimeout bounds the context of every API call. Zero means no
	// deadline.
	RequestTimeout time.Duration

	// ResetBaseURL is the root of the links mailed by forgot-password. When
	// empty, the links point back at this server.
	ResetBaseURL string

	Metrics *metrics.Metrics
	// MetricsHandler serves GET /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler
}

type Handler struct {
	services *service.Services
	opts     Options
	now      func() time.Time

	logger *logger.Logger
}

func NewHandler(services *service.Services, opts Options, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}
