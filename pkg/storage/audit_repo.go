package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/storage/dao"
)

// AuditRepo 审批单Repository的sqlx实现（对外导出）
// 同一份实现通过Dialect适配sqlite/mysql/postgres
type AuditRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewAuditRepo 创建AuditRepo实例
func NewAuditRepo(db *sqlx.DB, dialect Dialect) *AuditRepo {
	return &AuditRepo{db: db, dialect: dialect}
}

// CreateAudit 实现AuditRepository接口
// 审批单、首条日志与业务工单标签回写在同一事务内提交
func (r *AuditRepo) CreateAudit(ctx context.Context, a *audit.WorkflowAudit, lg *audit.WorkflowLog, writeBack TxHook) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	insertSQL := `
	INSERT INTO workflow_audit
	(audit_id, group_id, group_name, workflow_id, workflow_type, workflow_title, workflow_remark,
	 audit_auth_groups, current_audit, next_audit, current_status, create_user, create_time, sys_time)
	VALUES (:audit_id, :group_id, :group_name, :workflow_id, :workflow_type, :workflow_title, :workflow_remark,
	 :audit_auth_groups, :current_audit, :next_audit, :current_status, :create_user, :create_time, :sys_time)
	`
	if _, err := tx.NamedExecContext(ctx, insertSQL, auditToDAO(a)); err != nil {
		if isUniqueViolation(err) {
			return audit.ErrDuplicateSubmission
		}
		return fmt.Errorf("写入审批单失败: %w", err)
	}

	if err := insertLogInTx(ctx, tx, lg); err != nil {
		return err
	}

	if writeBack != nil {
		if err := writeBack(ctx, tx); err != nil {
			return fmt.Errorf("回写业务工单失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// UpdateAudit 实现AuditRepository接口
// WHERE子句携带迁移前的状态与当前审批组做乐观校验，避免并发审批重复推进
func (r *AuditRepo) UpdateAudit(ctx context.Context, a *audit.WorkflowAudit, prev *audit.WorkflowAudit, lg *audit.WorkflowLog, writeBack TxHook) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	updateSQL := r.db.Rebind(`
	UPDATE workflow_audit
	SET current_audit = ?, next_audit = ?, current_status = ?, sys_time = ?
	WHERE audit_id = ? AND current_status = ? AND current_audit = ?
	`)
	res, err := tx.ExecContext(ctx, updateSQL,
		int64(a.CurrentAudit), int64(a.NextAudit), int(a.Status), a.SysTime,
		a.AuditID, int(prev.Status), int64(prev.CurrentAudit),
	)
	if err != nil {
		return fmt.Errorf("更新审批单失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取更新行数失败: %w", err)
	}
	if affected == 0 {
		return audit.ErrConcurrentOperate
	}

	if err := insertLogInTx(ctx, tx, lg); err != nil {
		return err
	}

	if writeBack != nil {
		if err := writeBack(ctx, tx); err != nil {
			return fmt.Errorf("回写业务工单失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func insertLogInTx(ctx context.Context, tx *sqlx.Tx, lg *audit.WorkflowLog) error {
	insertSQL := `
	INSERT INTO workflow_log
	(log_id, audit_id, operation_type, operator, operator_display, operation_info, create_time)
	VALUES (:log_id, :audit_id, :operation_type, :operator, :operator_display, :operation_info, :create_time)
	`
	if _, err := tx.NamedExecContext(ctx, insertSQL, logToDAO(lg)); err != nil {
		return fmt.Errorf("写入审批日志失败: %w", err)
	}
	return nil
}

// GetByID 实现AuditRepository接口
func (r *AuditRepo) GetByID(ctx context.Context, auditID string) (*audit.WorkflowAudit, error) {
	var row dao.WorkflowAuditDAO
	query := r.db.Rebind(`SELECT * FROM workflow_audit WHERE audit_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, auditID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询审批单失败: %w", err)
	}
	return auditFromDAO(&row)
}

// GetByWorkflow 实现AuditRepository接口
func (r *AuditRepo) GetByWorkflow(ctx context.Context, workflowID int64, t audit.WorkflowType) (*audit.WorkflowAudit, error) {
	var row dao.WorkflowAuditDAO
	query := r.db.Rebind(`SELECT * FROM workflow_audit WHERE workflow_id = ? AND workflow_type = ?`)
	if err := r.db.GetContext(ctx, &row, query, workflowID, int(t)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询审批单失败: %w", err)
	}
	return auditFromDAO(&row)
}

// ListWaiting 实现AuditRepository接口
func (r *AuditRepo) ListWaiting(ctx context.Context) ([]*audit.WorkflowAudit, error) {
	var rows []dao.WorkflowAuditDAO
	query := r.db.Rebind(`SELECT * FROM workflow_audit WHERE current_status = ? ORDER BY create_time DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, int(audit.StatusWaiting)); err != nil {
		return nil, fmt.Errorf("查询待审核列表失败: %w", err)
	}
	return auditsFromDAO(rows)
}

// ListWaitingForGroups 实现AuditRepository接口
func (r *AuditRepo) ListWaitingForGroups(ctx context.Context, groups []audit.GroupID) ([]*audit.WorkflowAudit, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = int64(g)
	}
	query, args, err := sqlx.In(
		`SELECT * FROM workflow_audit WHERE current_status = ? AND current_audit IN (?) ORDER BY create_time DESC`,
		int(audit.StatusWaiting), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("构造查询失败: %w", err)
	}
	var rows []dao.WorkflowAuditDAO
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询待审核列表失败: %w", err)
	}
	return auditsFromDAO(rows)
}

// Logs 实现AuditRepository接口，时间正序
func (r *AuditRepo) Logs(ctx context.Context, auditID string) ([]*audit.WorkflowLog, error) {
	var rows []dao.WorkflowLogDAO
	query := r.db.Rebind(`SELECT * FROM workflow_log WHERE audit_id = ? ORDER BY create_time ASC, log_id ASC`)
	if err := r.db.SelectContext(ctx, &rows, query, auditID); err != nil {
		return nil, fmt.Errorf("查询审批日志失败: %w", err)
	}
	logs := make([]*audit.WorkflowLog, 0, len(rows))
	for i := range rows {
		logs = append(logs, logFromDAO(&rows[i]))
	}
	return logs, nil
}

// PurgeLogs 实现AuditRepository接口
func (r *AuditRepo) PurgeLogs(ctx context.Context, before time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM workflow_log WHERE create_time < ?`)
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("清理审批日志失败: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("获取删除行数失败: %w", err)
	}
	return affected, nil
}

// ========== DAO转换 ==========

func auditToDAO(a *audit.WorkflowAudit) *dao.WorkflowAuditDAO {
	return &dao.WorkflowAuditDAO{
		AuditID:         a.AuditID,
		GroupID:         a.GroupID,
		GroupName:       a.GroupName,
		WorkflowID:      a.WorkflowID,
		WorkflowType:    int(a.WorkflowType),
		WorkflowTitle:   a.Title,
		WorkflowRemark:  a.Remark,
		AuditAuthGroups: a.AuthGroups.String(),
		CurrentAudit:    int64(a.CurrentAudit),
		NextAudit:       int64(a.NextAudit),
		CurrentStatus:   int(a.Status),
		CreateUser:      a.CreateUser,
		CreateTime:      a.CreateTime,
		SysTime:         a.SysTime,
	}
}

func auditFromDAO(row *dao.WorkflowAuditDAO) (*audit.WorkflowAudit, error) {
	groups, err := audit.ParseAuthGroups(row.AuditAuthGroups)
	if err != nil {
		return nil, fmt.Errorf("审批单 %s 的审批流数据损坏: %w", row.AuditID, err)
	}
	return &audit.WorkflowAudit{
		AuditID:      row.AuditID,
		GroupID:      row.GroupID,
		GroupName:    row.GroupName,
		WorkflowID:   row.WorkflowID,
		WorkflowType: audit.WorkflowType(row.WorkflowType),
		Title:        row.WorkflowTitle,
		Remark:       row.WorkflowRemark,
		AuthGroups:   groups,
		CurrentAudit: audit.GroupID(row.CurrentAudit),
		NextAudit:    audit.GroupID(row.NextAudit),
		Status:       audit.Status(row.CurrentStatus),
		CreateUser:   row.CreateUser,
		CreateTime:   row.CreateTime,
		SysTime:      row.SysTime,
	}, nil
}

func auditsFromDAO(rows []dao.WorkflowAuditDAO) ([]*audit.WorkflowAudit, error) {
	out := make([]*audit.WorkflowAudit, 0, len(rows))
	for i := range rows {
		a, err := auditFromDAO(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func logToDAO(lg *audit.WorkflowLog) *dao.WorkflowLogDAO {
	return &dao.WorkflowLogDAO{
		LogID:           lg.LogID,
		AuditID:         lg.AuditID,
		OperationType:   int(lg.Operation),
		Operator:        lg.Operator,
		OperatorDisplay: lg.OperatorDisplay,
		OperationInfo:   lg.Info,
		CreateTime:      lg.CreateTime,
	}
}

func logFromDAO(row *dao.WorkflowLogDAO) *audit.WorkflowLog {
	return &audit.WorkflowLog{
		LogID:           row.LogID,
		AuditID:         row.AuditID,
		Operation:       audit.Action(row.OperationType),
		Operator:        row.Operator,
		OperatorDisplay: row.OperatorDisplay,
		Info:            row.OperationInfo,
		CreateTime:      row.CreateTime,
	}
}

// 确保实现接口
var _ AuditRepository = (*AuditRepo)(nil)
