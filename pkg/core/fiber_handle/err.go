package fiber_handle

import (
	"errors"

	errorc "osskit/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

// ErrHandler 业务错误统一以200返回，status字段为错误码
func ErrHandler(ctx *fiber.Ctx, err error) error {

	var e *fiber.Error
	if errors.As(err, &e) {
		return ctx.Status(e.Code).SendString(e.Message)
	}

	cError := errorc.ParseError(err)

	return ctx.Status(200).JSON(fiber.Map{"status": cError.Code, "message": cError.Msg, "errData": cError})
}
