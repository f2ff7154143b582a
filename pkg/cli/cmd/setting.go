package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lanheader/Archery/pkg/cli/output"
	"github.com/lanheader/Archery/pkg/core/audit"
)

var (
	settingType       int
	settingGroup      int64
	settingAuthGroups string
)

// settingCmd setting子命令
var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "审批流配置管理命令",
	Long:  `查看与修改各资源组、各工单类型的审批流配置。`,
}

// settingGetCmd 查看审批流配置
var settingGetCmd = &cobra.Command{
	Use:   "get",
	Short: "查看审批流配置",
	Long: `查看指定工单类型与资源组的审批流配置。

示例：
  archery-audit setting get --type 1 --group 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		app, err := buildApp(ctx)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer app.Close()

		chain, found, err := app.engine.Settings(ctx, audit.WorkflowType(settingType), settingGroup)
		if err != nil {
			output.Error("查询审批流配置失败: %v", err)
			return err
		}
		if !found {
			output.Warning("审批流未配置: type=%d, group=%d", settingType, settingGroup)
			return nil
		}

		if outputJSON {
			return output.PrintJSON(map[string]interface{}{
				"workflow_type":     settingType,
				"group_id":          settingGroup,
				"audit_auth_groups": chain,
			})
		}

		table := output.NewTable([]string{"TYPE", "GROUP", "AUTH GROUPS"})
		table.AddRow([]string{
			audit.WorkflowType(settingType).String(),
			strconv.FormatInt(settingGroup, 10),
			chain,
		})
		table.Render()
		return nil
	},
}

// settingSetCmd 修改审批流配置
var settingSetCmd = &cobra.Command{
	Use:   "set",
	Short: "修改审批流配置",
	Long: `修改指定工单类型与资源组的审批流配置。

审批流为逗号分隔的权限组ID序列，按顺序逐级审批；
传入空串表示该类工单无需审批。

示例：
  archery-audit setting set --type 1 --group 1 --auth-groups "2,3"
  archery-audit setting set --type 2 --group 1 --auth-groups ""`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if !cmd.Flags().Changed("auth-groups") {
			output.Error("缺少--auth-groups参数")
			return fmt.Errorf("missing --auth-groups")
		}

		groups, err := audit.ParseAuthGroups(settingAuthGroups)
		if err != nil {
			output.Error("非法的审批流: %v", err)
			return err
		}

		app, err := buildApp(ctx)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer app.Close()

		if err := app.engine.ChangeSettings(ctx, audit.WorkflowType(settingType), settingGroup, groups); err != nil {
			output.Error("保存审批流配置失败: %v", err)
			return err
		}

		output.Success("审批流配置已更新: type=%d, group=%d, auth_groups=%q",
			settingType, settingGroup, groups.String())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{settingGetCmd, settingSetCmd} {
		c.Flags().IntVarP(&settingType, "type", "t", int(audit.TypeSQLReview), "工单类型（1=SQL上线 2=查询 3=归档）")
		c.Flags().Int64VarP(&settingGroup, "group", "g", 0, "资源组ID")
		c.MarkFlagRequired("group")
	}
	settingSetCmd.Flags().StringVar(&settingAuthGroups, "auth-groups", "", "逗号分隔的权限组ID序列")

	settingCmd.AddCommand(settingGetCmd)
	settingCmd.AddCommand(settingSetCmd)
}
