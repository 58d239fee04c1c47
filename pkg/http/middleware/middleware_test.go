package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "EngDB/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type budget struct {
	left int
	keys []string
}

func (b *budget) Allow(key string) bool {
	b.keys = append(b.keys, key)
	if b.left == 0 {
		return false
	}
	b.left--
	return true
}

func serve(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	b := &budget{left: 1}
	e := echo.New()
	e.Use(RateLimit(b, "/metrics"))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/api/mnemonics", ok)
	e.GET("/metrics", ok)

	assert.Equal(t, http.StatusOK, serve(e, "/api/mnemonics").Code)
	rec := serve(e, "/api/mnemonics")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too Many Requests")

	assert.Equal(t, http.StatusOK, serve(e, "/metrics").Code)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.1"}, b.keys)
}

func TestMetricsLabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(Metrics(m, applogger.NewNop(), 0))
	e.GET("/api/mnemonics/:id/info", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return c.NoContent(http.StatusOK)
	})

	serve(e, "/api/mnemonics/A/info")
	serve(e, "/api/mnemonics/B/info")
	assert.Equal(t, http.StatusNotFound, serve(e, "/api/mnemonics/missing/info").Code)

	route := "/api/mnemonics/:id/info"
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(route, http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(route, http.MethodGet, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, "5xx", statusClass(503))
}
