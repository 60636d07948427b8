package start

import (
	"context"
	"net"
	"time"

	"osskit/pkg/core/config"
	"osskit/pkg/core/logger"
	"osskit/pkg/oss"
	"osskit/pkg/scheduler"

	"gopkg.in/yaml.v3"
)

type Configures struct {
	Config  *config.Config
	Logger  *logger.Log
	LocalIP string
}

// NewConfigures 读取配置文件并初始化日志，path为空时只使用环境变量
func NewConfigures(path string, env string) (*Configures, error) {
	cfg, err := config.LoadFile(path, env)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg), nil
}

func FromConfig(cfg *config.Config) *Configures {
	c := &Configures{
		Config: cfg,
		Logger: logger.InitLogger(cfg.Log.Level),
	}
	c.LocalIP, _ = getLocalIP()
	if cfg.Log.Sls.Enabled() {
		c.Logger.AddHook(logger.NewSlsHook(cfg.AppName, c.LocalIP, cfg.Log.Sls))
		c.Logger.WithField("project", cfg.Log.Sls.Project).WithField("logstore", cfg.Log.Sls.Logstore).Info("日志已接入阿里云日志服务")
	}
	return c
}

// getLocalIP 获取本机IP地址（优先获取内网IP）
func getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				// 优先返回内网IP
				if ipnet.IP.IsPrivate() {
					return ipnet.IP.String(), nil
				}
			}
		}
	}

	// 如果没找到内网IP，返回第一个非回环地址
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "127.0.0.1", nil
}

func (c *Configures) EnableOSS(ctx context.Context, opts ...oss.Option) *oss.Service {
	service, err := oss.InitAliyunOSS(ctx, &c.Config.Oss, append([]oss.Option{oss.WithLogger(c.Logger)}, opts...)...)
	if err != nil {
		c.Logger.WithBucket(c.Config.Oss.Bucket).WithErr(err).Panic("初始化OSS失败")
	}
	return service
}

func (c *Configures) EnableVerifier() *oss.Verifier {
	verifier, err := oss.InitVerifier(c.Config.Server.KeyCacheSize, c.Config.Server.CallbackKeyHosts...)
	if err != nil {
		c.Logger.WithErr(err).Panic("初始化回调校验器失败")
	}
	return verifier
}

const sweepTimeout = 10 * time.Minute

// EnableSweeper 启动本地调度器，配置了 sweep.cron 时定时清理过期的分片上传
func (c *Configures) EnableSweeper(service *oss.Service) *scheduler.Scheduler {
	sweep := c.Config.Sweep
	s := scheduler.NewScheduler(&scheduler.SchedulerConfig{MaxWorkers: sweep.MaxWorkers})
	if err := s.Start(); err != nil {
		c.Logger.WithErr(err).Panic("启动调度器失败")
	}
	if sweep.Cron == "" {
		return s
	}

	task, err := scheduler.NewCronTask("abort-stale-uploads", sweep.Cron, sweepTimeout, func(ctx context.Context) error {
		_, err := service.AbortStaleUploads(ctx, sweep.Prefix, sweep.Expire)
		return err
	})
	if err != nil {
		c.Logger.WithErr(err).WithField("cron", sweep.Cron).Panic("分片清理任务配置错误")
	}
	if err := s.AddTask(task); err != nil {
		c.Logger.WithErr(err).Panic("添加分片清理任务失败")
	}
	c.Logger.WithField("cron", sweep.Cron).WithField("expire", sweep.Expire.String()).Info("已启用分片上传清理")
	return s
}

// Dump 以yaml输出当前生效的配置，密钥打码
func (c *Configures) Dump() ([]byte, error) {
	cfg := *c.Config
	cfg.Oss.AccessKeySecret = mask(cfg.Oss.AccessKeySecret)
	cfg.Oss.AccessKeyID = mask(cfg.Oss.AccessKeyID)
	cfg.Log.Sls.AccessSecret = mask(cfg.Log.Sls.AccessSecret)
	return yaml.Marshal(&cfg)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
