// Package workflow 定义审批引擎对业务工单的协作接口
// 业务工单本身（SQL上线、查询权限、数据归档）不属于审批引擎，引擎只读取工单
// 信息并回写审批流展示标签
package workflow

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/core/audit"
)

// Workflow 业务工单快照（对外导出）
// workflow_id + workflow_type 多态引用业务表中的一行
type Workflow struct {
	ID               int64              // 业务工单ID
	Type             audit.WorkflowType // 工单类型
	Title            string             // 工单标题
	Remark           string             // 工单备注
	GroupID          int64              // 提交工单的资源组ID
	GroupName        string             // 提交工单的资源组名称
	Submitter        string             // 申请人用户名
	SubmitterDisplay string             // 申请人显示名
	ResourceGroupID  int64              // 归档工单关联的资源组ID（仅归档类型使用）
	AuthGroupsLabel  string             // 审批流展示标签（由引擎回写）
}

// ResourceGroup 资源组（对外导出）
type ResourceGroup struct {
	ID   int64  // 资源组ID
	Name string // 资源组名称
}

// Resolver 业务工单解析器（对外导出）
// 每种工单类型注册一个实现，引擎通过Registry按类型分发
type Resolver interface {
	// Fetch 按ID查询业务工单，不存在时返回(nil, nil)
	Fetch(ctx context.Context, workflowID int64) (*Workflow, error)

	// WriteBackAuthGroups 回写审批流展示标签到业务工单行
	// 在引擎的审批事务内执行，保证标签与审批单状态一致
	WriteBackAuthGroups(ctx context.Context, tx *sqlx.Tx, workflowID int64, label string) error

	// AutoReview 类型相关的自动审核判定
	// 仅在全局auto_review开关开启时被调用
	AutoReview(ctx context.Context, wf *Workflow) (bool, error)
}

// Registry 工单类型到Resolver的分发表（对外导出）
// 以类型枚举为键做显式分发，避免运行时类型判断
type Registry struct {
	entries map[audit.WorkflowType]registryEntry
}

type registryEntry struct {
	resolver   Resolver
	reviewPerm string
}

// NewRegistry 创建空的分发表
func NewRegistry() *Registry {
	return &Registry{entries: make(map[audit.WorkflowType]registryEntry)}
}

// Register 注册一种工单类型的Resolver及其审核权限名
func (r *Registry) Register(t audit.WorkflowType, resolver Resolver, reviewPerm string) {
	r.entries[t] = registryEntry{resolver: resolver, reviewPerm: reviewPerm}
}

// Resolver 按类型取Resolver
func (r *Registry) Resolver(t audit.WorkflowType) (Resolver, bool) {
	e, ok := r.entries[t]
	if !ok {
		return nil, false
	}
	return e.resolver, true
}

// ReviewPermission 按类型取审核权限名（如 sql_review / query_review / archive_review）
func (r *Registry) ReviewPermission(t audit.WorkflowType) (string, bool) {
	e, ok := r.entries[t]
	if !ok {
		return "", false
	}
	return e.reviewPerm, true
}

// 各工单类型的审核权限名
const (
	PermSQLReview     = "sql_review"
	PermQueryReview   = "query_review"
	PermArchiveReview = "archive_review"
)
