package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanheader/Archery/pkg/api"
	"github.com/lanheader/Archery/pkg/cli/output"
	"github.com/lanheader/Archery/pkg/core/engine"
)

var (
	serverPort int
	serverHost string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理审批引擎HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动审批引擎HTTP API服务。

示例：
  # 使用默认配置启动
  archery-audit server start

  # 指定端口启动
  archery-audit server start --port 8080

  # 指定配置文件启动
  archery-audit server start --config ./configs/audit.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, err := buildApp(ctx)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer app.Close()

		// 命令行参数覆盖配置文件
		host := app.cfg.Server.Host
		port := app.cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serverHost
		}
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		serverConfig := api.ServerConfig{
			Host:         host,
			Port:         port,
			ReadTimeout:  app.cfg.Server.ReadTimeout,
			WriteTimeout: app.cfg.Server.WriteTimeout,
		}

		// 审批日志定时清理
		var purger *engine.LogPurger
		if app.cfg.Audit.LogRetentionDays > 0 {
			retention := time.Duration(app.cfg.Audit.LogRetentionDays) * 24 * time.Hour
			purger, err = engine.NewLogPurger(app.repos.Audit, app.cfg.Audit.PurgeCron, retention)
			if err != nil {
				output.Error("初始化日志清理任务失败: %v", err)
				return err
			}
			purger.Start()
			defer purger.Stop()
		}

		apiServer := api.NewAPIServer(app.engine, app.publisher, serverConfig, Version)

		// 在goroutine中启动服务器
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("Audit API Server started on %s:%d", host, port)

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")

	serverCmd.AddCommand(serverStartCmd)
}
