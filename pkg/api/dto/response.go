// Package dto 定义审批API的请求/响应结构
package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// AuditDetail 审批单详情
type AuditDetail struct {
	AuditID      string    `json:"audit_id"`
	GroupID      int64     `json:"group_id"`
	GroupName    string    `json:"group_name"`
	WorkflowID   int64     `json:"workflow_id"`
	WorkflowType int       `json:"workflow_type"`
	Title        string    `json:"workflow_title"`
	Remark       string    `json:"workflow_remark,omitempty"`
	AuthGroups   string    `json:"audit_auth_groups"`
	CurrentAudit int64     `json:"current_audit"`
	NextAudit    int64     `json:"next_audit"`
	Status       int       `json:"current_status"`
	StatusLabel  string    `json:"status_label"`
	CreateUser   string    `json:"create_user"`
	CreateTime   time.Time `json:"create_time"`
}

// LogItem 审批日志项
type LogItem struct {
	LogID           string    `json:"log_id"`
	Operation       int       `json:"operation_type"`
	OperationLabel  string    `json:"operation_label"`
	Operator        string    `json:"operator"`
	OperatorDisplay string    `json:"operator_display,omitempty"`
	Info            string    `json:"operation_info"`
	CreateTime      time.Time `json:"create_time"`
}

// ReviewInfoResponse 审批流展示信息
type ReviewInfoResponse struct {
	AuthGroups   string `json:"audit_auth_groups"`
	CurrentGroup string `json:"current_audit_auth_group,omitempty"`
}

// SettingsResponse 审批流配置
type SettingsResponse struct {
	WorkflowType int    `json:"workflow_type"`
	GroupID      int64  `json:"group_id"`
	AuthGroups   string `json:"audit_auth_groups"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// OperateResponse 操作响应
type OperateResponse struct {
	AuditID string  `json:"audit_id"`
	Status  int     `json:"current_status"`
	Log     LogItem `json:"log"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
