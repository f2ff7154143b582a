package dto

// CreateAuditRequest 创建审批单请求
// 业务工单必须已存在，归档工单可携带资源组名称
type CreateAuditRequest struct {
	WorkflowID    int64  `json:"workflow_id" binding:"required"`
	WorkflowType  int    `json:"workflow_type" binding:"required"`
	ResourceGroup string `json:"resource_group,omitempty"`
}

// OperateRequest 审批操作请求
// 操作人由上游网关认证后注入，审批引擎不做身份认证
type OperateRequest struct {
	WorkflowID   int64  `json:"workflow_id" binding:"required"`
	WorkflowType int    `json:"workflow_type" binding:"required"`
	Action       int    `json:"action"`
	Operator     string `json:"operator" binding:"required"`
	Note         string `json:"note,omitempty"`
}

// ChangeSettingsRequest 修改审批流配置请求
type ChangeSettingsRequest struct {
	AuthGroups string `json:"audit_auth_groups"`
}
