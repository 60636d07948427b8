package oss

import (
	"context"

	"osskit/pkg/core/config"
	"osskit/pkg/core/logger"
)

// InitAliyunOSS 初始化阿里云OSS服务
func InitAliyunOSS(ctx context.Context, cfg *config.OssConfig, opts ...Option) (*Service, error) {
	service, err := NewService(cfg, NewAliyunStore(cfg), opts...)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithEntryName("AliyunOSSService")
	log.WithTrace(ctx).WithBucket(cfg.Bucket).WithField("region", cfg.RegionOrDefault()).Info("阿里云OSS服务初始化完成")
	return service, nil
}

// InitVerifier 初始化回调校验器，cacheSize>0 时公钥按URL缓存，allowedHosts 为空时不限制公钥域名
func InitVerifier(cacheSize int, allowedHosts ...string) (*Verifier, error) {
	var fetcher Fetcher = HTTPFetcher{}
	if cacheSize > 0 {
		cached, err := NewCachedFetcher(fetcher, cacheSize)
		if err != nil {
			return nil, err
		}
		fetcher = cached
	}
	return NewVerifier(fetcher, logger.GetLogger()).WithAllowedHosts(allowedHosts...), nil
}
