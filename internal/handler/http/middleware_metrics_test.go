package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMetrics_LabelsByRoutePattern(t *testing.T) {
	m := newTestMetrics(t)
	router := newHandlerWithAuth(t, &mockAuthService{}, Options{Metrics: m}).Init()

	for _, token := range []string{"aaa", "bbb", "ccc"} {
		rr := doJSON(t, router, http.MethodGet, "/api/auth/reset-password/"+token, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	doJSON(t, router, http.MethodGet, "/nowhere", "")

	assert.Equal(t, 3.0, testutil.ToFloat64(
		m.Requests.WithLabelValues(http.MethodGet, "/api/auth/reset-password/{token}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.Requests.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestWithMetrics_NilMetricsPassThrough(t *testing.T) {
	h := newHandlerWithAuth(t, &mockAuthService{}, Options{})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rr := httptest.NewRecorder()
	h.withMetrics(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestMetricsRoute(t *testing.T) {
	m := newTestMetrics(t)
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := newHandlerWithAuth(t, &mockAuthService{}, Options{Metrics: m, MetricsHandler: metricsHandler}).Init()

	rr := doJSON(t, router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "# metrics"))
}
