// Package events 提供审批状态迁移的事件总线
// 引擎在每次成功迁移后发布事件，外部通知方（如聊天机器人）订阅消费，
// 通知投递本身不属于审批引擎
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/lanheader/Archery/pkg/core/audit"
)

// TopicAuditTransitions 审批迁移事件主题
const TopicAuditTransitions = "audit.transitions"

// AuditEvent 审批迁移事件（对外导出）
type AuditEvent struct {
	ID           string             `json:"id"`            // 事件ID（UUID）
	AuditID      string             `json:"audit_id"`      // 审批单ID
	WorkflowID   int64              `json:"workflow_id"`   // 业务工单ID
	WorkflowType audit.WorkflowType `json:"workflow_type"` // 工单类型
	Title        string             `json:"title"`         // 工单标题
	Action       audit.Action       `json:"action"`        // 触发迁移的操作
	Status       audit.Status       `json:"status"`        // 迁移后的状态
	Operator     string             `json:"operator"`      // 操作人
	Timestamp    time.Time          `json:"timestamp"`     // 事件时间
}

// NewAuditEvent 创建审批迁移事件
func NewAuditEvent(a *audit.WorkflowAudit, action audit.Action, operator string) *AuditEvent {
	return &AuditEvent{
		ID:           uuid.NewString(),
		AuditID:      a.AuditID,
		WorkflowID:   a.WorkflowID,
		WorkflowType: a.WorkflowType,
		Title:        a.Title,
		Action:       action,
		Status:       a.Status,
		Operator:     operator,
		Timestamp:    time.Now(),
	}
}
