package storage

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// InitSchema 初始化审批相关表结构（对外导出）
// DDL按方言生成，幂等执行（已存在的表/索引错误被忽略）
func InitSchema(db *sqlx.DB, dialect Dialect) error {
	ts := dialect.TimestampType()
	text := dialect.TextType()

	createAuditSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_audit (
		audit_id VARCHAR(36) PRIMARY KEY,
		group_id BIGINT NOT NULL,
		group_name VARCHAR(100) NOT NULL DEFAULT '',
		workflow_id BIGINT NOT NULL,
		workflow_type INT NOT NULL,
		workflow_title VARCHAR(255) NOT NULL DEFAULT '',
		workflow_remark %s,
		audit_auth_groups VARCHAR(255) NOT NULL DEFAULT '',
		current_audit BIGINT NOT NULL DEFAULT -1,
		next_audit BIGINT NOT NULL DEFAULT -1,
		current_status INT NOT NULL DEFAULT 0,
		create_user VARCHAR(100) NOT NULL DEFAULT '',
		create_time %s NOT NULL,
		sys_time %s NOT NULL,
		CONSTRAINT uk_workflow_audit UNIQUE (workflow_id, workflow_type)
	);`, text, ts, ts)

	createLogSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_log (
		log_id VARCHAR(36) PRIMARY KEY,
		audit_id VARCHAR(36) NOT NULL,
		operation_type INT NOT NULL,
		operator VARCHAR(100) NOT NULL DEFAULT '',
		operator_display VARCHAR(100) NOT NULL DEFAULT '',
		operation_info %s,
		create_time %s NOT NULL
	);`, text, ts)

	createSettingSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_audit_setting (
		setting_id VARCHAR(36) PRIMARY KEY,
		workflow_type INT NOT NULL,
		group_id BIGINT NOT NULL,
		audit_auth_groups VARCHAR(255) NOT NULL DEFAULT '',
		sys_time %s NOT NULL,
		CONSTRAINT uk_audit_setting UNIQUE (workflow_type, group_id)
	);`, ts)

	createResourceGroupSQL := `
	CREATE TABLE IF NOT EXISTS resource_group (
		group_id BIGINT PRIMARY KEY,
		group_name VARCHAR(100) NOT NULL,
		CONSTRAINT uk_resource_group_name UNIQUE (group_name)
	);`

	createSysConfigSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS sys_config (
		cfg_key VARCHAR(64) PRIMARY KEY,
		cfg_value %s
	);`, text)

	createTicketSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS business_ticket (
		workflow_id BIGINT NOT NULL,
		workflow_type INT NOT NULL,
		title VARCHAR(255) NOT NULL DEFAULT '',
		remark %s,
		group_id BIGINT NOT NULL DEFAULT 0,
		group_name VARCHAR(100) NOT NULL DEFAULT '',
		submitter VARCHAR(100) NOT NULL DEFAULT '',
		submitter_display VARCHAR(100) NOT NULL DEFAULT '',
		resource_group_id BIGINT NOT NULL DEFAULT 0,
		audit_auth_groups VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (workflow_id, workflow_type)
	);`, text)

	indexSQL := []string{
		"CREATE INDEX idx_workflow_log_audit_id ON workflow_log (audit_id);",
		"CREATE INDEX idx_workflow_log_create_time ON workflow_log (create_time);",
		"CREATE INDEX idx_workflow_audit_status ON workflow_audit (current_status);",
	}

	tables := []string{
		createAuditSQL, createLogSQL, createSettingSQL,
		createResourceGroupSQL, createSysConfigSQL, createTicketSQL,
	}
	for _, ddl := range append(tables, indexSQL...) {
		if _, err := db.Exec(ddl); err != nil {
			// MySQL不支持CREATE INDEX IF NOT EXISTS，重复创建的错误直接忽略
			if isAlreadyExists(err) {
				continue
			}
			return fmt.Errorf("执行DDL失败: %w", err)
		}
	}
	return nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate key name") ||
		strings.Contains(msg, "duplicate index")
}

// isUniqueViolation 唯一约束冲突判断，覆盖三种驱动的报错文本
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
