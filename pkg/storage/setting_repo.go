package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage/dao"
)

// SettingRepo 审批流配置Repository的sqlx实现（对外导出）
type SettingRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSettingRepo 创建SettingRepo实例
func NewSettingRepo(db *sqlx.DB, dialect Dialect) *SettingRepo {
	return &SettingRepo{db: db, dialect: dialect}
}

// Get 实现SettingRepository接口
func (r *SettingRepo) Get(ctx context.Context, t audit.WorkflowType, groupID int64) (*audit.WorkflowAuditSetting, error) {
	var row dao.AuditSettingDAO
	query := r.db.Rebind(`SELECT * FROM workflow_audit_setting WHERE workflow_type = ? AND group_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, int(t), groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询审批流配置失败: %w", err)
	}
	groups, err := audit.ParseAuthGroups(row.AuditAuthGroups)
	if err != nil {
		return nil, fmt.Errorf("审批流配置 %s 数据损坏: %w", row.SettingID, err)
	}
	return &audit.WorkflowAuditSetting{
		SettingID:    row.SettingID,
		WorkflowType: audit.WorkflowType(row.WorkflowType),
		GroupID:      row.GroupID,
		AuthGroups:   groups,
		SysTime:      row.SysTime,
	}, nil
}

// Upsert 实现SettingRepository接口
func (r *SettingRepo) Upsert(ctx context.Context, t audit.WorkflowType, groupID int64, groups audit.AuthGroups) error {
	row := &dao.AuditSettingDAO{
		SettingID:       uuid.NewString(),
		WorkflowType:    int(t),
		GroupID:         groupID,
		AuditAuthGroups: groups.String(),
		SysTime:         time.Now(),
	}
	query := r.dialect.UpsertSQL(
		"workflow_audit_setting",
		[]string{"setting_id", "workflow_type", "group_id", "audit_auth_groups", "sys_time"},
		[]string{"workflow_type", "group_id"},
		[]string{"audit_auth_groups", "sys_time"},
	)
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("保存审批流配置失败: %w", err)
	}
	return nil
}

// 确保实现接口
var _ SettingRepository = (*SettingRepo)(nil)

// ResourceGroupRepo 资源组Repository的sqlx实现（对外导出）
type ResourceGroupRepo struct {
	db *sqlx.DB
}

// NewResourceGroupRepo 创建ResourceGroupRepo实例
func NewResourceGroupRepo(db *sqlx.DB) *ResourceGroupRepo {
	return &ResourceGroupRepo{db: db}
}

// GetByName 实现ResourceGroupRepository接口
func (r *ResourceGroupRepo) GetByName(ctx context.Context, name string) (*workflow.ResourceGroup, error) {
	var row dao.ResourceGroupDAO
	query := r.db.Rebind(`SELECT * FROM resource_group WHERE group_name = ?`)
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询资源组失败: %w", err)
	}
	return &workflow.ResourceGroup{ID: row.GroupID, Name: row.GroupName}, nil
}

// GetByID 实现ResourceGroupRepository接口
func (r *ResourceGroupRepo) GetByID(ctx context.Context, id int64) (*workflow.ResourceGroup, error) {
	var row dao.ResourceGroupDAO
	query := r.db.Rebind(`SELECT * FROM resource_group WHERE group_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询资源组失败: %w", err)
	}
	return &workflow.ResourceGroup{ID: row.GroupID, Name: row.GroupName}, nil
}

// Create 实现ResourceGroupRepository接口
func (r *ResourceGroupRepo) Create(ctx context.Context, g *workflow.ResourceGroup) error {
	query := r.db.Rebind(`INSERT INTO resource_group (group_id, group_name) VALUES (?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, g.ID, g.Name); err != nil {
		return fmt.Errorf("创建资源组失败: %w", err)
	}
	return nil
}

// 确保实现接口
var _ ResourceGroupRepository = (*ResourceGroupRepo)(nil)

// ConfigRepo 系统配置Repository的sqlx实现（对外导出）
type ConfigRepo struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewConfigRepo 创建ConfigRepo实例
func NewConfigRepo(db *sqlx.DB, dialect Dialect) *ConfigRepo {
	return &ConfigRepo{db: db, dialect: dialect}
}

// GetAll 实现ConfigRepository接口
func (r *ConfigRepo) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []dao.SysConfigDAO
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM sys_config`); err != nil {
		return nil, fmt.Errorf("查询系统配置失败: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.CfgKey] = row.CfgValue
	}
	return out, nil
}

// Set 实现ConfigRepository接口
func (r *ConfigRepo) Set(ctx context.Context, key, value string) error {
	query := r.dialect.UpsertSQL(
		"sys_config",
		[]string{"cfg_key", "cfg_value"},
		[]string{"cfg_key"},
		[]string{"cfg_value"},
	)
	row := &dao.SysConfigDAO{CfgKey: key, CfgValue: value}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("保存系统配置失败: %w", err)
	}
	return nil
}

// Purge 实现ConfigRepository接口
func (r *ConfigRepo) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sys_config`); err != nil {
		return fmt.Errorf("清空系统配置失败: %w", err)
	}
	return nil
}

// 确保实现接口
var _ ConfigRepository = (*ConfigRepo)(nil)
