package storage

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册存储模块的所有 HTTP 路由
func RegisterRoutes(m *Module, api fiber.Router) {
	m.apiController.RegisterRoutes(api)
}
