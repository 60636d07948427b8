package router

import (
	"osskit/app"
	"osskit/system/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register 负责集中注册所有 HTTP 路由。
//   - 只依赖 app.App（业务编排入口）和 fiber.App（HTTP Server）。
//   - 不包含业务逻辑，只做分组与路由绑定。
//
// 健康检查由 start.GetApp 中的中间件处理。
func Register(a *app.App, f *fiber.App) {
	if a.Registry != nil {
		f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	}

	// OSS 直传授权、上传回调、对象查询
	api := f.Group("/oss")
	storage.RegisterRoutes(a.StorageModule, api)
}
