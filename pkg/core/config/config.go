package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"osskit/utils"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName string       `yaml:"app-name"`
	Env     string       `yaml:"env"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
	Oss     OssConfig    `yaml:"oss"`
	Sweep   SweepConfig  `yaml:"sweep"`
}

// envBindings 环境变量名沿用旧版配置
var envBindings = map[string]string{
	"oss.access-key":        "ALIYUN_APP_ACCESS_KEY",
	"oss.access-secret":     "ALIYUN_APP_ACCESS_SECRET",
	"oss.debug":             "ALIYUN_OSS_DEBUG",
	"oss.bucket-name":       "ALIYUN_OSS_BUCKET",
	"oss.endpoint":          "ALIYUN_OSS_ENDPOINT",
	"oss.endpoint-internal": "ALIYUN_OSS_ENDPOINT_INTERNAL",
	"oss.region":            "ALIYUN_OSS_REGION",
	"oss.cname":             "ALIYUN_OSS_ENABLE_CNAME",
	"oss.domain":            "ALIYUN_OSS_CDN_DOMAIN",
	"oss.ssl":               "ALIYUN_OSS_ENABLE_SSL",
	"oss.video-dir":         "ALIYUN_OSS_VIDEO_DIR",
	"oss.image-dir":         "ALIYUN_OSS_IMAGE_DIR",
	"oss.audio-dir":         "ALIYUN_OSS_AUDIO_DIR",
	"log.level":             "OSSKIT_LOG_LEVEL",
	"log.sls.access-key":    "ALIYUN_SLS_ACCESS_KEY",
	"log.sls.access-secret": "ALIYUN_SLS_ACCESS_SECRET",
	"server.port":           "OSSKIT_PORT",
	"sweep.cron":            "OSSKIT_SWEEP_CRON",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app-name", "osskit")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body-limit", 1024*1024)
	v.SetDefault("server.key-cache-size", 16)
	v.SetDefault("server.callback-key-hosts", []string{"gosspublic.alicdn.com"})
	v.SetDefault("log.level", "info")
	v.SetDefault("sweep.expire", "24h")
	v.SetDefault("sweep.max-workers", 2)
	v.SetDefault("oss.debug", false)
	v.SetDefault("oss.cname", false)
	v.SetDefault("oss.ssl", false)
	v.SetDefault("oss.video-dir", "uploads/videos")
	v.SetDefault("oss.image-dir", "uploads/images")
	v.SetDefault("oss.audio-dir", "uploads/audio")
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Parse 解析yaml配置内容，环境变量优先于文件
func Parse(file []byte, env string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if len(file) > 0 {
		if err := v.ReadConfig(bytes.NewReader(file)); err != nil {
			return nil, fmt.Errorf("读取配置内容失败: %w", err)
		}
	}
	return decode(v, env)
}

// LoadFile 读取配置文件，并加载同目录下的 .env（不存在时忽略）
func LoadFile(path string, env string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载.env失败: %w", err)
	}

	var file []byte
	if path != "" {
		var err error
		file, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	return Parse(file, env)
}

func decode(v *viper.Viper, env string) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置，错误信息为中文
func Validate(cfg *Config) error {
	if msg, err := utils.Validate(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %s: %w", msg, err)
	}
	return nil
}
