package config

import "time"

// SweepConfig 未完成分片上传的定时清理，Cron 为空时不启用
type SweepConfig struct {
	Cron       string        `yaml:"cron"`
	Expire     time.Duration `yaml:"expire" validate:"gte=0"`
	Prefix     string        `yaml:"prefix"`
	MaxWorkers int           `yaml:"max-workers" validate:"gte=0"`
}
