package app

import (
	"strings"
	"time"

	"osskit/base"
	"osskit/pkg/core/fiber_handle"
	"osskit/pkg/core/logger"
	"osskit/pkg/core/start"

	"github.com/gofiber/fiber/v2"
)

// GetApp 创建 Fiber 应用，配置了static-dir时提供直传示例页面
func GetApp() *fiber.App {
	server := base.Configures.Config.Server
	var checkers []fiber_handle.HealthChecker
	if base.Scheduler != nil {
		checkers = append(checkers, fiber_handle.HealthChecker{Name: "scheduler", Check: base.Scheduler.Healthy})
	}
	app := start.GetApp(server, checkers...)
	if base.Registry != nil {
		app.Use(start.UseMonitor(base.Registry))
	}

	RegisterStaticFiles(app, server.StaticDir, "/")

	return app
}

// RegisterStaticFiles 配置静态文件服务，未匹配的页面请求回退到index.html
func RegisterStaticFiles(app *fiber.App, staticPath string, prefixPath string) {
	if staticPath == "" {
		return
	}

	// 注册静态文件目录
	app.Static(prefixPath, staticPath, fiber.Static{
		Compress:      true,
		ByteRange:     true,
		Browse:        false,
		Index:         "index.html",
		CacheDuration: 10 * time.Minute,
	})

	// 注意：这应该在接口路由配置之后添加
	app.Get("*", func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/oss") || strings.HasPrefix(path, "/metrics") || strings.HasPrefix(path, "/health") {
			return c.Next()
		}

		// 静态资源文件检查（不重定向常见的静态资源请求）
		if len(path) > 0 {
			ext := getFileExtension(path)
			if ext == ".js" || ext == ".css" || ext == ".png" || ext == ".jpg" ||
				ext == ".jpeg" || ext == ".gif" || ext == ".svg" || ext == ".ico" ||
				ext == ".woff" || ext == ".woff2" || ext == ".ttf" || ext == ".eot" {
				return c.Next()
			}
		}

		return c.SendFile(staticPath + "/index.html")
	})

	logger.GetLogger().WithField("path", staticPath).WithField("prefix", prefixPath).Info("已注册静态文件服务")
}

// 辅助函数：获取文件扩展名
func getFileExtension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
