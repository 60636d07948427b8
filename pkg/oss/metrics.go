package oss

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 记录每个存储调用点的次数和耗时，nil 时不记录
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	callbacks  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osskit",
			Name:      "operations_total",
			Help:      "Storage operations by call site and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "osskit",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation latency by call site.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osskit",
			Name:      "callbacks_total",
			Help:      "Upload callbacks by verification result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.callbacks)
	}
	return m
}

func (m *Metrics) observe(op Op, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(string(op), result).Inc()
	m.duration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}

// ObserveCallback 记录回调校验结果
func (m *Metrics) ObserveCallback(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.callbacks.WithLabelValues("verified").Inc()
		return
	}
	m.callbacks.WithLabelValues("rejected").Inc()
}
