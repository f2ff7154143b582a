// Package dao 定义审批相关表的数据访问对象（内部使用）
package dao

import (
	"time"
)

// WorkflowAuditDAO workflow_audit表的数据访问对象
// (workflow_id, workflow_type) 唯一
type WorkflowAuditDAO struct {
	AuditID         string    `db:"audit_id"`
	GroupID         int64     `db:"group_id"`
	GroupName       string    `db:"group_name"`
	WorkflowID      int64     `db:"workflow_id"`
	WorkflowType    int       `db:"workflow_type"`
	WorkflowTitle   string    `db:"workflow_title"`
	WorkflowRemark  string    `db:"workflow_remark"`
	AuditAuthGroups string    `db:"audit_auth_groups"` // 逗号分隔的审批组链，""表示无需审批
	CurrentAudit    int64     `db:"current_audit"`     // -1表示无审批组/已结束
	NextAudit       int64     `db:"next_audit"`
	CurrentStatus   int       `db:"current_status"`
	CreateUser      string    `db:"create_user"`
	CreateTime      time.Time `db:"create_time"`
	SysTime         time.Time `db:"sys_time"`
}

// WorkflowLogDAO workflow_log表的数据访问对象，只追加
type WorkflowLogDAO struct {
	LogID           string    `db:"log_id"`
	AuditID         string    `db:"audit_id"`
	OperationType   int       `db:"operation_type"`
	Operator        string    `db:"operator"`
	OperatorDisplay string    `db:"operator_display"`
	OperationInfo   string    `db:"operation_info"`
	CreateTime      time.Time `db:"create_time"`
}

// AuditSettingDAO workflow_audit_setting表的数据访问对象
// (workflow_type, group_id) 唯一
type AuditSettingDAO struct {
	SettingID       string    `db:"setting_id"`
	WorkflowType    int       `db:"workflow_type"`
	GroupID         int64     `db:"group_id"`
	AuditAuthGroups string    `db:"audit_auth_groups"`
	SysTime         time.Time `db:"sys_time"`
}

// ResourceGroupDAO resource_group表的数据访问对象
type ResourceGroupDAO struct {
	GroupID   int64  `db:"group_id"`
	GroupName string `db:"group_name"`
}

// SysConfigDAO sys_config表的数据访问对象
type SysConfigDAO struct {
	CfgKey   string `db:"cfg_key"`
	CfgValue string `db:"cfg_value"`
}

// TicketDAO business_ticket表的数据访问对象
// 默认的业务工单存储，生产环境可替换为真实业务表的Resolver
type TicketDAO struct {
	WorkflowID       int64  `db:"workflow_id"`
	WorkflowType     int    `db:"workflow_type"`
	Title            string `db:"title"`
	Remark           string `db:"remark"`
	GroupID          int64  `db:"group_id"`
	GroupName        string `db:"group_name"`
	Submitter        string `db:"submitter"`
	SubmitterDisplay string `db:"submitter_display"`
	ResourceGroupID  int64  `db:"resource_group_id"`
	AuditAuthGroups  string `db:"audit_auth_groups"`
}
