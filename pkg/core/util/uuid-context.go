package util

import (
	"context"

	"osskit/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// Context 取出请求上下文，没有链路ID时生成一个
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx.Value(consts.TraceKey) == nil {
		traceID := c.Get(consts.TraceHeaderName)
		if traceID == "" {
			traceID = uuid.NewV4().String()
		}
		return context.WithValue(ctx, consts.TraceKey, traceID)
	}
	return ctx
}
