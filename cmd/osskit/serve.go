package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osskit/app"
	"osskit/base"
	"osskit/pkg/oss"
	"osskit/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "监听端口，默认取配置")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configures, err := loadConfigures()
	if err != nil {
		return err
	}
	base.Configures = configures
	base.Logger = configures.Logger
	base.ENV = env

	base.Registry = prometheus.NewRegistry()
	base.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	base.Metrics = oss.NewMetrics(base.Registry)
	base.OSS = configures.EnableOSS(ctx, oss.WithMetrics(base.Metrics))
	base.Verifier = configures.EnableVerifier()
	base.Scheduler = configures.EnableSweeper(base.OSS)
	defer func() {
		if err := base.Scheduler.Stop(); err != nil {
			base.Logger.WithErr(err).Warn("停止调度器失败")
		}
	}()

	appRoot := app.NewApp()
	fiberApp := app.GetApp()
	router.Register(appRoot, fiberApp)

	port := configures.Config.Server.Port
	if servePort > 0 {
		port = servePort
	}
	addr := fmt.Sprintf("%s:%d", configures.Config.Server.Host, port)

	errCh := make(chan error, 1)
	go func() {
		base.Logger.WithField("addr", addr).WithField("localIP", configures.LocalIP).Info("HTTP服务已启动")
		errCh <- fiberApp.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	base.Logger.Info("正在关闭HTTP服务")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "关闭HTTP服务失败: %v\n", err)
		return err
	}
	return nil
}
