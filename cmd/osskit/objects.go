package main

import (
	"fmt"
	"time"

	"osskit/pkg/oss"

	"github.com/spf13/cobra"
)

var (
	lsRecursive bool
	lsJSON      bool

	putMultipart bool

	urlProcess string
	urlSign    bool
	urlExpire  time.Duration
)

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "列举目录",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		service, err := getService(cmd.Context())
		if err != nil {
			return err
		}
		listing, err := service.ListDirObjects(cmd.Context(), prefix, lsRecursive)
		if err != nil {
			return err
		}
		if lsJSON {
			return printJSON(cmd, listing)
		}
		for _, p := range listing.Prefixes {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		for _, o := range listing.Objects {
			fmt.Fprintf(cmd.OutOrStdout(), "%12d  %s  %s\n", o.Size, o.LastModified.Format(time.DateTime), o.Key)
		}
		return nil
	},
}

var rmdirCmd = &cobra.Command{
	Use:   "rmdir <dir>",
	Short: "删除目录及其下全部对象",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := getService(cmd.Context())
		if err != nil {
			return err
		}
		return service.DeleteDir(cmd.Context(), args[0])
	},
}

var putCmd = &cobra.Command{
	Use:   "put <file> <object>",
	Short: "上传本地文件",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := getService(cmd.Context())
		if err != nil {
			return err
		}
		if putMultipart {
			result, err := service.MultipartUpload(cmd.Context(), args[1], args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}
		info, err := service.PutFile(cmd.Context(), args[1], args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <object> <file>",
	Short: "下载对象到本地文件",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := getService(cmd.Context())
		if err != nil {
			return err
		}
		info, err := service.Download(cmd.Context(), args[0], args[1], oss.ReadOptions{})
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <object>",
	Short: "生成对象访问地址",
	Long: `生成对象访问地址，--sign 时生成私有对象的签名地址。

Examples:
  osskit url photos/a.jpg --process image/resize,w_100
  osskit url private/b.pdf --sign --expire 30m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := getService(cmd.Context())
		if err != nil {
			return err
		}
		if !urlSign {
			fmt.Fprintln(cmd.OutOrStdout(), service.ImageURL(args[0], urlProcess))
			return nil
		}
		signed, err := service.SignURL(cmd.Context(), args[0], urlProcess, urlExpire)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "递归列举子目录")
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "以JSON输出")
	putCmd.Flags().BoolVar(&putMultipart, "multipart", false, "分片上传")
	urlCmd.Flags().StringVar(&urlProcess, "process", "", "图片处理参数")
	urlCmd.Flags().BoolVar(&urlSign, "sign", false, "生成签名地址")
	urlCmd.Flags().DurationVar(&urlExpire, "expire", time.Hour, "签名地址有效期")

	rootCmd.AddCommand(lsCmd, rmdirCmd, putCmd, getCmd, urlCmd)
}
