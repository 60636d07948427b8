// Package fiber_handle 提供 Fiber 框架的中间件处理器
//
// API 监控中间件使用示例：
//
//	monitor := fiber_handle.NewHTTPMetrics(registry)
//	app.Use(fiber_handle.NewAPIMonitorWithFilters(fiber_handle.MonitorConfig{Metrics: monitor},
//		fiber_handle.SkipHealthCheck, fiber_handle.SkipMethods("OPTIONS")))
package fiber_handle

import (
	"errors"
	"strconv"
	"strings"
	"time"

	errorc "osskit/pkg/core/err"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics 接口调用次数和耗时
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osskit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "osskit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	Metrics *HTTPMetrics
}

// FilterFunc 过滤器函数类型，返回false时跳过监控
type FilterFunc func(c *fiber.Ctx) bool

// NewAPIMonitor 创建 API 监控中间件
func NewAPIMonitor(config MonitorConfig) fiber.Handler {
	return NewAPIMonitorWithFilters(config)
}

// NewAPIMonitorWithFilters 创建带过滤器列表的 API 监控中间件
func NewAPIMonitorWithFilters(config MonitorConfig, filters ...FilterFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if config.Metrics == nil {
			return c.Next()
		}

		for _, filter := range filters {
			if !filter(c) {
				return c.Next()
			}
		}

		startTime := time.Now()
		err := c.Next()
		recordAPIMetrics(config, c, startTime, err)
		return err
	}
}

func recordAPIMetrics(config MonitorConfig, c *fiber.Ctx, startTime time.Time, handlerErr error) {
	// 优先使用路由路径，避免对象key撑爆标签
	path := c.Route().Path
	if path == "" {
		path = c.Path()
	}
	// fiber 的字符串指向会被复用的请求缓冲区，作为标签保存前必须拷贝
	path = utils.CopyString(path)
	method := utils.CopyString(c.Method())

	// 错误由ErrHandler统一输出，这里按错误码记录
	status := c.Response().StatusCode()
	if handlerErr != nil {
		var e *fiber.Error
		if errors.As(handlerErr, &e) {
			status = e.Code
		} else {
			status = errorc.Code(handlerErr).Code
		}
	}

	config.Metrics.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	config.Metrics.duration.WithLabelValues(method, path).Observe(time.Since(startTime).Seconds())
}

// SkipHealthCheck 健康检查过滤器，跳过健康检查端点的监控
func SkipHealthCheck(c *fiber.Ctx) bool {
	path := strings.ToLower(c.Path())
	return !strings.Contains(path, "/health")
}

// OnlyPathStartWith 仅监控指定前缀的路径
func OnlyPathStartWith(paths ...string) FilterFunc {
	return func(c *fiber.Ctx) bool {
		for _, path := range paths {
			s := c.Path()
			if strings.HasPrefix(s, path) {
				return true
			}
		}
		return false
	}
}

// SkipMethods 跳过指定HTTP方法的监控
func SkipMethods(methods ...string) FilterFunc {
	skipMap := make(map[string]bool)
	for _, method := range methods {
		skipMap[strings.ToUpper(method)] = true
	}

	return func(c *fiber.Ctx) bool {
		return !skipMap[c.Method()]
	}
}
