package config

import "strings"

// OssConfig OSS配置结构体
type OssConfig struct {
	AccessKeyID      string `yaml:"access-key" validate:"required"`    // 访问密钥ID
	AccessKeySecret  string `yaml:"access-secret" validate:"required"` // 访问密钥Secret
	Bucket           string `yaml:"bucket-name" validate:"required"`   // 存储空间名称
	Endpoint         string `yaml:"endpoint" validate:"required"`      // 外网节点或自定义外部域名
	EndpointInternal string `yaml:"endpoint-internal"`                 // 内网节点
	Region           string `yaml:"region,omitempty"`                  // 区域，为空时从endpoint推断
	Domain           string `yaml:"domain"`                            // 绑定的自定义域名/CDN域名
	CName            bool   `yaml:"cname"`                             // 是否使用自定义域名访问
	SSL              bool   `yaml:"ssl"`                               // true为https，false为http
	Debug            bool   `yaml:"debug"`

	// 直传目录
	ImageDir string `yaml:"image-dir"`
	VideoDir string `yaml:"video-dir"`
	AudioDir string `yaml:"audio-dir"`
}

// RegionOrDefault 未配置region时从 oss-cn-hangzhou(-internal).aliyuncs.com 形式的endpoint中推断
func (c OssConfig) RegionOrDefault() string {
	if c.Region != "" {
		return c.Region
	}
	ep := StripScheme(c.Endpoint)
	ep = strings.TrimSuffix(ep, "/")
	ep = strings.TrimSuffix(ep, ".aliyuncs.com")
	ep = strings.TrimSuffix(ep, "-internal")
	if !strings.HasPrefix(ep, "oss-") || strings.Contains(ep, ".") {
		return ""
	}
	return strings.TrimPrefix(ep, "oss-")
}

// UploadDir 返回文件类型对应的直传目录
func (c OssConfig) UploadDir(fileType string) string {
	switch strings.ToLower(fileType) {
	case "image":
		return c.ImageDir
	case "video":
		return c.VideoDir
	case "audio":
		return c.AudioDir
	}
	return ""
}

// StripScheme 去掉 http:// 或 https:// 前缀
func StripScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") {
		return endpoint[len("http://"):]
	}
	if strings.HasPrefix(endpoint, "https://") {
		return endpoint[len("https://"):]
	}
	return endpoint
}
