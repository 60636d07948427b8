package start

import (
	"osskit/pkg/core/config"
	"osskit/pkg/core/fiber_handle"
	"osskit/pkg/core/logger"
	"osskit/pkg/core/util"

	"github.com/gofiber/fiber/v2"
	recover2 "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

const healthPath = "/health"

// GetApp 创建带通用中间件的 Fiber 应用，checkers 参与 /health 检查
func GetApp(cfg config.ServerConfig, checkers ...fiber_handle.HealthChecker) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	app := fiber.New(
		fiber.Config{
			BodyLimit:             bodyLimit,
			ErrorHandler:          fiber_handle.ErrHandler,
			DisableStartupMessage: true,
		})
	app.Use(fiber_handle.Cors())
	app.Use(recover2.New(recover2.Config{
		Next:             nil,
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.GetLogger().WithTrace(util.Context(c)).WithField("path", c.Path()).WithField("panic", e).Error("请求处理崩溃")
		},
	}))
	app.Use(fiber_handle.HealthCheck(fiber_handle.HealthCheckConfig{Path: healthPath, Checkers: checkers}))
	app.Use(fiber_handle.NewTracer())
	app.Use(logger.NewAPILogger(logger.APIConfig{Logger: logger.GetLogger(), LogBody: cfg.LogBody}))
	return app
}

func UseMonitor(reg prometheus.Registerer) fiber.Handler {
	return fiber_handle.NewAPIMonitorWithFilters(fiber_handle.MonitorConfig{
		Metrics: fiber_handle.NewHTTPMetrics(reg),
	}, fiber_handle.SkipMethods("OPTIONS"), fiber_handle.SkipHealthCheck, fiber_handle.OnlyPathStartWith("/oss"))
}
