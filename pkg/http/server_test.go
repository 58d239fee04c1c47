package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ping", func(c echo.Context) error {
		return DataResponse(c, http.StatusOK, "pong")
	})
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(pingHandler{}, WithMetrics("/metrics", reg, reg))

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/ping").Code)

	rec := do(s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/ping",status="200"} 1`)
}

func TestServerRateLimitSkipsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(pingHandler{}, WithMetrics("", reg, reg), WithRateLimit(denyAll{}))

	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/api/ping").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/metrics").Code)
}

func TestServerCORSPreflight(t *testing.T) {
	s := NewServer(pingHandler{})
	req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "https://example.org")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.org", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}
