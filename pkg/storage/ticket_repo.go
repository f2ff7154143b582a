package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage/dao"
)

// TicketRepo 默认业务工单Repository的sqlx实现（对外导出）
// 三种工单类型共用business_ticket表，生产环境可替换为各自业务表的Resolver
type TicketRepo struct {
	db *sqlx.DB
}

// NewTicketRepo 创建TicketRepo实例
func NewTicketRepo(db *sqlx.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// Create 实现TicketRepository接口
func (r *TicketRepo) Create(ctx context.Context, wf *workflow.Workflow) error {
	insertSQL := `
	INSERT INTO business_ticket
	(workflow_id, workflow_type, title, remark, group_id, group_name, submitter, submitter_display,
	 resource_group_id, audit_auth_groups)
	VALUES (:workflow_id, :workflow_type, :title, :remark, :group_id, :group_name, :submitter, :submitter_display,
	 :resource_group_id, :audit_auth_groups)
	`
	if _, err := r.db.NamedExecContext(ctx, insertSQL, ticketToDAO(wf)); err != nil {
		return fmt.Errorf("创建业务工单失败: %w", err)
	}
	return nil
}

// Get 实现TicketRepository接口
func (r *TicketRepo) Get(ctx context.Context, t audit.WorkflowType, workflowID int64) (*workflow.Workflow, error) {
	var row dao.TicketDAO
	query := r.db.Rebind(`SELECT * FROM business_ticket WHERE workflow_id = ? AND workflow_type = ?`)
	if err := r.db.GetContext(ctx, &row, query, workflowID, int(t)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询业务工单失败: %w", err)
	}
	return ticketFromDAO(&row), nil
}

// WriteBackAuthGroups 实现TicketRepository接口，在调用方事务内执行
func (r *TicketRepo) WriteBackAuthGroups(ctx context.Context, tx *sqlx.Tx, t audit.WorkflowType, workflowID int64, label string) error {
	query := tx.Rebind(`UPDATE business_ticket SET audit_auth_groups = ? WHERE workflow_id = ? AND workflow_type = ?`)
	if _, err := tx.ExecContext(ctx, query, label, workflowID, int(t)); err != nil {
		return fmt.Errorf("回写审批流标签失败: %w", err)
	}
	return nil
}

func ticketToDAO(wf *workflow.Workflow) *dao.TicketDAO {
	return &dao.TicketDAO{
		WorkflowID:       wf.ID,
		WorkflowType:     int(wf.Type),
		Title:            wf.Title,
		Remark:           wf.Remark,
		GroupID:          wf.GroupID,
		GroupName:        wf.GroupName,
		Submitter:        wf.Submitter,
		SubmitterDisplay: wf.SubmitterDisplay,
		ResourceGroupID:  wf.ResourceGroupID,
		AuditAuthGroups:  wf.AuthGroupsLabel,
	}
}

func ticketFromDAO(row *dao.TicketDAO) *workflow.Workflow {
	return &workflow.Workflow{
		ID:               row.WorkflowID,
		Type:             audit.WorkflowType(row.WorkflowType),
		Title:            row.Title,
		Remark:           row.Remark,
		GroupID:          row.GroupID,
		GroupName:        row.GroupName,
		Submitter:        row.Submitter,
		SubmitterDisplay: row.SubmitterDisplay,
		ResourceGroupID:  row.ResourceGroupID,
		AuthGroupsLabel:  row.AuditAuthGroups,
	}
}

// 确保实现接口
var _ TicketRepository = (*TicketRepo)(nil)

// TicketResolver 把TicketRepo适配为某一工单类型的workflow.Resolver（对外导出）
type TicketResolver struct {
	repo TicketRepository
	t    audit.WorkflowType
	// autoReview 类型相关的自动审核判定，nil表示永不自动审核
	autoReview func(ctx context.Context, wf *workflow.Workflow) (bool, error)
}

// NewTicketResolver 创建指定类型的TicketResolver
func NewTicketResolver(repo TicketRepository, t audit.WorkflowType, autoReview func(ctx context.Context, wf *workflow.Workflow) (bool, error)) *TicketResolver {
	return &TicketResolver{repo: repo, t: t, autoReview: autoReview}
}

// Fetch 实现workflow.Resolver接口
func (r *TicketResolver) Fetch(ctx context.Context, workflowID int64) (*workflow.Workflow, error) {
	return r.repo.Get(ctx, r.t, workflowID)
}

// WriteBackAuthGroups 实现workflow.Resolver接口
func (r *TicketResolver) WriteBackAuthGroups(ctx context.Context, tx *sqlx.Tx, workflowID int64, label string) error {
	return r.repo.WriteBackAuthGroups(ctx, tx, r.t, workflowID, label)
}

// AutoReview 实现workflow.Resolver接口
func (r *TicketResolver) AutoReview(ctx context.Context, wf *workflow.Workflow) (bool, error) {
	if r.autoReview == nil {
		return false, nil
	}
	return r.autoReview(ctx, wf)
}

// 确保实现接口
var _ workflow.Resolver = (*TicketResolver)(nil)
