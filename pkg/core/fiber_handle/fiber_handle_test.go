package fiber_handle

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"osskit/pkg/core/consts"
	errorc "osskit/pkg/core/err"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrHandler})
	app.Get("/biz", func(c *fiber.Ctx) error {
		return errorc.NewErrorBuilder("test").New("参数错误", nil).ValidWithCtx()
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "teapot")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/biz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"status":400`)
	assert.Contains(t, string(body), `"message":"参数错误"`)

	resp, err = app.Test(httptest.NewRequest("GET", "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}

func TestTracer(t *testing.T) {
	app := fiber.New()
	app.Use(NewTracer())
	app.Get("/", func(c *fiber.Ctx) error {
		traceID, _ := c.UserContext().Value(consts.TraceKey).(string)
		return c.SendString(traceID)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(consts.TraceHeaderName, "trace-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "trace-1", string(body))
	assert.Equal(t, "trace-1", resp.Header.Get(consts.TraceHeaderName))

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(consts.TraceHeaderName))
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Use(HealthCheck(HealthCheckConfig{Path: "/health"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/other", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHealthCheckDown(t *testing.T) {
	app := fiber.New()
	app.Use(HealthCheck(HealthCheckConfig{Path: "/health", Checkers: []HealthChecker{
		{Name: "ok", Check: func() error { return nil }},
		{Name: "scheduler", Check: func() error { return errors.New("stopped") }},
	}}))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"down","checks":{"scheduler":"stopped"}}`, string(body))
}

func TestAPIMonitor(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	app := fiber.New(fiber.Config{ErrorHandler: ErrHandler})
	app.Use(HealthCheck(HealthCheckConfig{Path: "/health"}))
	app.Use(NewAPIMonitorWithFilters(MonitorConfig{Metrics: metrics}, SkipHealthCheck, SkipMethods("OPTIONS")))
	app.Get("/oss/objects", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/oss/fail", func(c *fiber.Ctx) error {
		return errorc.New("失败", errors.New("boom")).Third()
	})

	for _, path := range []string{"/oss/objects", "/oss/objects", "/oss/fail"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}
	_, err := app.Test(httptest.NewRequest("OPTIONS", "/oss/objects", nil))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/oss/objects", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/oss/fail", "502")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.requests.WithLabelValues("OPTIONS", "/oss/objects", "204")))
}

func TestAPIMonitorLabelsSurviveRequestReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	app := fiber.New(fiber.Config{ErrorHandler: ErrHandler})
	app.Use(NewAPIMonitor(MonitorConfig{Metrics: metrics}))
	app.Get("/oss/objects", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Delete("/oss/objects", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/oss/policy/:dir", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	requests := []struct{ method, path string }{
		{"GET", "/oss/objects"},
		{"DELETE", "/oss/objects"},
		{"POST", "/oss/policy/images"},
		{"GET", "/oss/objects"},
	}
	for _, r := range requests {
		_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, testutil.CollectAndCount(metrics.requests))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/oss/objects", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("DELETE", "/oss/objects", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("POST", "/oss/policy/:dir", "200")))
}

func TestOnlyPathStartWith(t *testing.T) {
	app := fiber.New()
	filter := OnlyPathStartWith("/oss")
	var got []bool
	app.Use(func(c *fiber.Ctx) error {
		got = append(got, filter(c))
		return c.SendStatus(200)
	})
	_, _ = app.Test(httptest.NewRequest("GET", "/oss/a", nil))
	_, _ = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, []bool{true, false}, got)
}
