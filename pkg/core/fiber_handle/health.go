package fiber_handle

import "github.com/gofiber/fiber/v2"

// HealthChecker 健康检查项，Check 返回错误即判定为不健康
type HealthChecker struct {
	Name  string
	Check func() error
}

type HealthCheckConfig struct {
	Path     string
	Checkers []HealthChecker
}

// HealthCheck 全部检查通过返回200，否则返回503并列出失败项
func HealthCheck(config HealthCheckConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() != config.Path {
			return c.Next()
		}

		failed := fiber.Map{}
		for _, checker := range config.Checkers {
			if err := checker.Check(); err != nil {
				failed[checker.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "checks": failed})
		}
		return c.JSON(fiber.Map{"status": "up"})
	}
}
