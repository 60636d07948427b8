package config

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port" validate:"min=0,max=65535"`
	BodyLimit int    `yaml:"body-limit"` // 回调请求体大小限制，单位B
	// KeyCacheSize 回调公钥缓存条目数，0表示不缓存
	KeyCacheSize int `yaml:"key-cache-size"`
	// CallbackKeyHosts 允许的回调公钥域名，为空不限制
	CallbackKeyHosts []string `yaml:"callback-key-hosts"`
	// StaticDir 直传示例页面目录，为空不提供
	StaticDir string `yaml:"static-dir"`
	// LogBody 请求日志记录非GET请求的请求体和响应体
	LogBody bool `yaml:"log-body"`
}
