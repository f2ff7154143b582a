// Package cmd 实现审批服务的命令行入口
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	configPath string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "archery-audit",
	Short: "Archery Audit - 工单审批引擎命令行工具",
	Long: `Archery Audit 是SQL上线/查询/归档工单的多级审批引擎。

支持的功能：
  - 启动HTTP API服务
  - 管理审批流配置（查看、修改）
  - 清理历史审批日志

使用示例：
  # 启动HTTP服务
  archery-audit server start --port 8080

  # 查看审批流配置
  archery-audit setting get --type 1 --group 1

  # 修改审批流配置
  archery-audit setting set --type 1 --group 1 --auth-groups "2,3"

  # 立即清理90天前的审批日志
  archery-audit purge --days 90`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(settingCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}
