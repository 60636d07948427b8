package consts

const (
	// TraceKey 上下文中保存链路ID的key
	TraceKey = "TraceId"
	// TraceHeaderName 跨服务传递链路ID的请求头
	TraceHeaderName = "X-Trace-Id"
)
