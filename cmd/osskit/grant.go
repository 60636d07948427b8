package main

import (
	"osskit/pkg/oss"

	"github.com/spf13/cobra"
)

var (
	grantExpire       int64
	grantMaxSize      int64
	grantCallbackURL  string
	grantCallbackBody []string
	grantBodyType     string
)

var grantCmd = &cobra.Command{
	Use:   "grant <image|video|audio>",
	Short: "生成客户端直传授权",
	Long: `生成客户端直传授权（host 和表单字段）。

Examples:
  osskit grant image
  osskit grant video --expire 300 --max-size 524288000
  osskit grant image --callback-url https://api.example.com/oss/callback --callback-body object,size,mimeType`,
	Args: cobra.ExactArgs(1),
	RunE: runGrant,
}

func init() {
	grantCmd.Flags().Int64Var(&grantExpire, "expire", 0, "授权有效期，单位秒，默认60")
	grantCmd.Flags().Int64Var(&grantMaxSize, "max-size", 0, "最大文件大小，单位B，默认100MB")
	grantCmd.Flags().StringVar(&grantCallbackURL, "callback-url", "", "上传回调地址")
	grantCmd.Flags().StringSliceVar(&grantCallbackBody, "callback-body", nil, "回调回传的系统参数")
	grantCmd.Flags().StringVar(&grantBodyType, "callback-body-type", "", "回调内容类型，json 或 form")
	rootCmd.AddCommand(grantCmd)
}

func runGrant(cmd *cobra.Command, args []string) error {
	service, err := getService(cmd.Context())
	if err != nil {
		return err
	}

	req := oss.GrantRequest{
		FileType:    args[0],
		Expire:      grantExpire,
		MaxFileSize: grantMaxSize,
	}
	if grantCallbackURL != "" {
		req.Callback = &oss.CallbackParams{
			URL:      grantCallbackURL,
			Body:     grantCallbackBody,
			BodyType: grantBodyType,
		}
	}

	grant, err := service.PostAuth(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd, grant)
}
