package logger

import (
	"fmt"
	"time"

	"osskit/pkg/core/config"

	sls "github.com/aliyun/aliyun-log-go-sdk"
	"github.com/gogo/protobuf/proto"
	"github.com/sirupsen/logrus"
)

type logPutter interface {
	PutLogs(project, logstore string, lg *sls.LogGroup) error
}

// SlsHook 将日志同步写入阿里云日志服务
type SlsHook struct {
	levels   []logrus.Level
	client   logPutter
	appName  string
	host     string
	project  string
	logstore string
}

func NewSlsHook(appName, host string, cfg config.SlsConfig) *SlsHook {
	provider := sls.NewStaticCredentialsProvider(cfg.AccessKey, cfg.AccessSecret, "")
	client := sls.CreateNormalInterfaceV2(cfg.Endpoint, provider)
	return newSlsHook(client, appName, host, cfg)
}

func newSlsHook(client logPutter, appName, host string, cfg config.SlsConfig) *SlsHook {
	return &SlsHook{
		levels: []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
			logrus.WarnLevel,
			logrus.InfoLevel,
		},
		client:   client,
		appName:  appName,
		host:     host,
		project:  cfg.Project,
		logstore: cfg.Logstore,
	}
}

func (s *SlsHook) Fire(entry *logrus.Entry) error {
	content := make([]*sls.LogContent, 0, len(entry.Data)+2)
	for k, v := range entry.Data {
		content = append(content, &sls.LogContent{
			Key:   proto.String(k),
			Value: proto.String(fmt.Sprintf("%v", v)),
		})
	}
	content = append(content,
		&sls.LogContent{Key: proto.String("level"), Value: proto.String(entry.Level.String())},
		&sls.LogContent{Key: proto.String("message"), Value: proto.String(entry.Message)},
	)

	at := entry.Time
	if at.IsZero() {
		at = time.Now()
	}
	logGroup := &sls.LogGroup{
		Topic:  proto.String(s.appName),
		Source: proto.String(s.host),
		Logs: []*sls.Log{{
			Time:     proto.Uint32(uint32(at.Unix())),
			Contents: content,
		}},
	}

	return s.client.PutLogs(s.project, s.logstore, logGroup)
}

func (s *SlsHook) Levels() []logrus.Level {
	return s.levels
}

// AddHook 为全局日志追加hook
func (l *Log) AddHook(hook logrus.Hook) {
	l.Entry.Logger.AddHook(hook)
}
