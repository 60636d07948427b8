package app

import (
	"osskit/base"
	"osskit/system/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// App 组合根，持有各模块
type App struct {
	Registry      *prometheus.Registry
	StorageModule *storage.Module
}

// NewApp 基于 base 中已初始化的组件创建各模块
func NewApp() *App {
	return &App{
		Registry:      base.Registry,
		StorageModule: storage.NewModule(base.OSS, base.Verifier, base.Metrics),
	}
}
