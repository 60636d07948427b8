package fiber_handle

import (
	"osskit/pkg/core/consts"
	"osskit/pkg/core/util"

	"github.com/gofiber/fiber/v2"
)

// NewTracer 为每个请求生成或沿用链路ID，写入上下文并回写到响应头
func NewTracer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := util.Context(c)
		traceID, _ := ctx.Value(consts.TraceKey).(string)

		c.SetUserContext(ctx)
		c.Locals(consts.TraceKey, traceID)
		c.Set(consts.TraceHeaderName, traceID)
		return c.Next()
	}
}
