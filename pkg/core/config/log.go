package config

type LogConfig struct {
	Level string    `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Sls   SlsConfig `yaml:"sls"`
}

// SlsConfig 日志投递到阿里云日志服务，Endpoint 为空时不启用
type SlsConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access-key"`
	AccessSecret string `yaml:"access-secret"`
	Project      string `yaml:"project" validate:"required_with=Endpoint"`
	Logstore     string `yaml:"logstore" validate:"required_with=Endpoint"`
}

func (c SlsConfig) Enabled() bool {
	return c.Endpoint != ""
}
