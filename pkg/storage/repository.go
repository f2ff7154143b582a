// Package storage 定义审批引擎的存储接口与sqlx实现
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
)

// TxHook 在审批事务内执行的附加写入（对外导出）
// 用于把业务工单的标签回写与审批单写入放进同一事务
type TxHook func(ctx context.Context, tx *sqlx.Tx) error

// AuditRepository 审批单与审批日志存储接口（对外导出）
// 查询接口的"未找到"返回(nil, nil)，不作为错误
type AuditRepository interface {
	// CreateAudit 事务内写入审批单、首条日志并执行回写钩子
	// (workflow_id, workflow_type)已存在时返回audit.ErrDuplicateSubmission
	CreateAudit(ctx context.Context, a *audit.WorkflowAudit, lg *audit.WorkflowLog, writeBack TxHook) error

	// UpdateAudit 事务内更新审批单并追加一条日志
	// UPDATE以prev的状态和当前审批组做乐观校验（PASS在WAITING内推进时状态不变，
	// 仅比较状态不足以挡住并发重复推进），校验失败返回audit.ErrConcurrentOperate
	UpdateAudit(ctx context.Context, a *audit.WorkflowAudit, prev *audit.WorkflowAudit, lg *audit.WorkflowLog, writeBack TxHook) error

	// GetByID 按审批单ID查询
	GetByID(ctx context.Context, auditID string) (*audit.WorkflowAudit, error)

	// GetByWorkflow 按业务工单查询
	GetByWorkflow(ctx context.Context, workflowID int64, t audit.WorkflowType) (*audit.WorkflowAudit, error)

	// ListWaiting 全部待审核审批单，创建时间倒序
	ListWaiting(ctx context.Context) ([]*audit.WorkflowAudit, error)

	// ListWaitingForGroups 当前审批组命中指定组集合的待审核审批单
	ListWaitingForGroups(ctx context.Context, groups []audit.GroupID) ([]*audit.WorkflowAudit, error)

	// Logs 审批单的全部日志，时间正序，可重复调用
	Logs(ctx context.Context, auditID string) ([]*audit.WorkflowLog, error)

	// PurgeLogs 批量清理早于指定时间的日志，返回删除行数
	PurgeLogs(ctx context.Context, before time.Time) (int64, error)
}

// SettingRepository 审批流配置存储接口（对外导出）
type SettingRepository interface {
	// Get 按(工单类型, 资源组)查询配置，缺失返回(nil, nil)
	Get(ctx context.Context, t audit.WorkflowType, groupID int64) (*audit.WorkflowAuditSetting, error)

	// Upsert 存在则更新，不存在则插入
	Upsert(ctx context.Context, t audit.WorkflowType, groupID int64, groups audit.AuthGroups) error
}

// ResourceGroupRepository 资源组存储接口（对外导出）
type ResourceGroupRepository interface {
	GetByName(ctx context.Context, name string) (*workflow.ResourceGroup, error)
	GetByID(ctx context.Context, id int64) (*workflow.ResourceGroup, error)
	Create(ctx context.Context, g *workflow.ResourceGroup) error
}

// ConfigRepository 系统配置键值存储接口（对外导出）
type ConfigRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Purge(ctx context.Context) error
}

// TicketRepository 默认业务工单存储接口（对外导出）
// 审批引擎视角下业务工单只读，唯一的写入是审批流标签回写
type TicketRepository interface {
	Create(ctx context.Context, wf *workflow.Workflow) error
	Get(ctx context.Context, t audit.WorkflowType, workflowID int64) (*workflow.Workflow, error)
	WriteBackAuthGroups(ctx context.Context, tx *sqlx.Tx, t audit.WorkflowType, workflowID int64, label string) error
}
