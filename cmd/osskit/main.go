package main

import (
	"context"
	"fmt"
	"os"

	"osskit/pkg/core/start"
	"osskit/pkg/oss"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile string
	env     string
)

var rootCmd = &cobra.Command{
	Use:     "osskit",
	Version: version,
	Short:   "阿里云OSS直传授权、回调校验与对象管理工具",
	Long: `osskit - 阿里云OSS直传授权、回调校验与对象管理工具

配置来自 yaml 文件和环境变量（ALIYUN_APP_ACCESS_KEY、ALIYUN_OSS_BUCKET 等），环境变量优先。
  - serve:  启动HTTP服务（/oss/post-auth、/oss/callback、/metrics）
  - grant:  生成客户端直传授权
  - ls:     列举目录
  - rmdir:  删除目录
  - put:    上传文件
  - get:    下载文件
  - url:    生成访问地址
  - config: 输出当前生效的配置`,
	SilenceUsage: true,
}

var printer = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径，为空时只读取环境变量")
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "dev", "运行环境 (dev, prod, test等)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfigures() (*start.Configures, error) {
	return start.NewConfigures(cfgFile, env)
}

func getService(ctx context.Context) (*oss.Service, error) {
	configures, err := loadConfigures()
	if err != nil {
		return nil, err
	}
	return oss.InitAliyunOSS(ctx, &configures.Config.Oss, oss.WithLogger(configures.Logger))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := printer.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
