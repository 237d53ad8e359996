package handler

import (
	nethttp "net/http"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/handler/http"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/metrics"
	"github.com/MKhiriev/snippet-keeper/internal/service"
	"github.com/MKhiriev/snippet-keeper/internal/store"
)

type Handlers struct {
	HTTP *http.Handler
}

// Observability groups the metric collectors and the handler that exposes
// them.
type Observability struct {
	Metrics        *metrics.Metrics
	MetricsHandler nethttp.Handler
}

func NewHandlers(services *service.Services, rateLimiter store.RateLimitStore, obs Observability, cfg *config.StructuredConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.Server.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{
		HTTP: http.NewHandler(services, http.Options{
			RateLimiter:       rateLimiter,
			RateLimitRequests: cfg.Server.RateLimitRequests,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
			RequestTimeout:    cfg.Server.RequestTimeout,
			ResetBaseURL:      cfg.App.ResetBaseURL,
			Metrics:           obs.Metrics,
			MetricsHandler:    obs.MetricsHandler,
		}, logger),
	}, nil
}
