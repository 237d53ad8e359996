package handler

import (
	"testing"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/service"
	"github.com/MKhiriev/snippet-keeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandlers_HTTP(t *testing.T) {
	cfg := &config.StructuredConfig{
		Server: config.Server{
			HTTPAddress:       ":8080",
			RateLimitRequests: 100,
			RateLimitWindow:   15 * time.Minute,
		},
	}

	h, err := NewHandlers(&service.Services{}, store.NewMemoryRateLimitStore(), Observability{}, cfg, logger.Nop())

	require.NoError(t, err)
	require.NotNil(t, h)
	assert.NotNil(t, h.HTTP, "expected HTTP handler to be initialised")
	assert.NotNil(t, h.HTTP.Init())
}

func TestNewHandlers_NoAddress(t *testing.T) {
	h, err := NewHandlers(&service.Services{}, nil, Observability{}, &config.StructuredConfig{}, logger.Nop())

	assert.Nil(t, h)
	assert.ErrorIs(t, err, errNoHandlersAreCreated)
}
