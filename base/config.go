package base

import (
	"osskit/pkg/core/logger"
	"osskit/pkg/core/start"
	"osskit/pkg/oss"
	"osskit/pkg/scheduler"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ENV        string
	Registry   *prometheus.Registry
	Metrics    *oss.Metrics
	OSS        *oss.Service
	Verifier   *oss.Verifier
	Scheduler  *scheduler.Scheduler
)
