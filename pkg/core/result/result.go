package result

import (
	errorc "osskit/pkg/core/err"
	"osskit/pkg/core/util"

	"github.com/gofiber/fiber/v2"
)

func OK(c *fiber.Ctx, v interface{}) error {
	return c.Status(200).JSON(fiber.Map{"status": 200, "data": v})
}

// BadRequestNormal 参数错误，带上请求的链路ID
func BadRequestNormal(c *fiber.Ctx, message string, err error) error {
	return errorc.New(message, err).ValidWithCtx().WithTraceID(util.Context(c))
}

func BadRequest(c *fiber.Ctx, err error) error {
	return err
}

func Once(c *fiber.Ctx, v interface{}, err error) error {
	if err == nil {
		return OK(c, v)
	} else {
		return BadRequest(c, err)
	}
}
