package logger

import (
	"strings"
	"time"

	"osskit/pkg/core/consts"
	errorc "osskit/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type APIConfig struct {
	Logger *Log
	// LogBody 非GET请求额外记录请求体和响应体
	LogBody bool
}

// NewAPILogger 请求日志中间件，出错时按错误链输出详情
func NewAPILogger(config APIConfig) fiber.Handler {
	log := config.Logger.WithEntryName("API")

	return func(c *fiber.Ctx) error {
		url := strings.SplitN(c.OriginalURL(), "?", 2)[0]
		start := time.Now()

		err := c.Next()

		cLog := log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", url).
			WithField("TraceId", c.Locals(consts.TraceKey))

		if config.LogBody && c.Method() != fiber.MethodGet {
			cLog = cLog.WithField("req", string(c.Request().Body())).
				WithField("resp", string(c.Response().Body()))
		}

		if err != nil {
			errc := errorc.ParseError(err)
			errc.ToLog(log.WithTrace(c.UserContext()).GetLogger())
			cLog = cLog.WithField("Err", errc.RootCause())
		}

		cLog.Debug("请求处理完毕")
		return err
	}
}
