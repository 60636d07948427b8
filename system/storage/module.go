package storage

import (
	"osskit/pkg/core/logger"
	"osskit/pkg/oss"
	controller "osskit/system/storage/external/http"
)

// Module OSS存储模块
type Module struct {
	apiController *controller.StorageAPIController
}

// NewModule 创建存储模块
func NewModule(service *oss.Service, verifier *oss.Verifier, metrics *oss.Metrics) *Module {
	log := logger.GetLogger().WithEntryName("StorageModule")
	log.WithBucket(service.Bucket()).Info("存储模块初始化")

	return &Module{
		apiController: controller.NewStorageAPIController(service, verifier, metrics),
	}
}
