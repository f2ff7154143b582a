// Package auth 定义审批引擎消费的用户/权限协作接口
// 用户目录与权限体系由外部系统提供，引擎只做查询
package auth

import (
	"context"

	"github.com/lanheader/Archery/pkg/core/audit"
)

// Provider 权限协作接口（对外导出）
type Provider interface {
	// IsSuperuser 是否超级管理员
	IsSuperuser(ctx context.Context, user string) (bool, error)

	// HasPermission 是否持有指定权限（如 sql_review）
	HasPermission(ctx context.Context, user string, perm string) (bool, error)

	// UserInGroup 是否属于指定审批组
	UserInGroup(ctx context.Context, user string, group audit.GroupID) (bool, error)

	// UserGroups 返回用户所属的全部审批组
	UserGroups(ctx context.Context, user string) ([]audit.GroupID, error)

	// GroupName 审批组名称，组不存在时found为false
	GroupName(ctx context.Context, group audit.GroupID) (name string, found bool, err error)
}
