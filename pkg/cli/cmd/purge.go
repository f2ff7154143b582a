package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanheader/Archery/pkg/cli/output"
	"github.com/lanheader/Archery/pkg/core/engine"
)

var purgeDays int

// purgeCmd purge命令，立即清理历史审批日志
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "清理历史审批日志",
	Long: `删除早于保留期的审批日志，审批单本身不受影响。

示例：
  # 清理90天前的审批日志
  archery-audit purge --days 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if purgeDays <= 0 {
			output.Error("--days必须为正数")
			return fmt.Errorf("invalid --days: %d", purgeDays)
		}

		app, err := buildApp(ctx)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer app.Close()

		retention := time.Duration(purgeDays) * 24 * time.Hour
		purger, err := engine.NewLogPurger(app.repos.Audit, app.cfg.Audit.PurgeCron, retention)
		if err != nil {
			output.Error("初始化日志清理任务失败: %v", err)
			return err
		}

		n, err := purger.PurgeOnce(ctx)
		if err != nil {
			output.Error("清理审批日志失败: %v", err)
			return err
		}

		output.Success("清理完成, 删除 %d 行审批日志", n)
		return nil
	},
}

func init() {
	purgeCmd.Flags().IntVarP(&purgeDays, "days", "d", 90, "日志保留天数")
}
