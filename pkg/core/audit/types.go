// Package audit 定义工作流审批领域模型：审批单、审批日志、审批配置与状态机枚举
package audit

import (
	"time"
)

// Status 审批单状态（对外导出）
type Status int

const (
	// StatusWaiting 待审核
	StatusWaiting Status = 0
	// StatusPassed 审核通过
	StatusPassed Status = 1
	// StatusRejected 审核不通过
	StatusRejected Status = 2
	// StatusAborted 审核取消
	StatusAborted Status = 3
)

// String 返回状态的中文描述
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "待审核"
	case StatusPassed:
		return "审核通过"
	case StatusRejected:
		return "审核不通过"
	case StatusAborted:
		return "审核取消"
	default:
		return "未知状态"
	}
}

// IsTerminal 是否终态（终态不允许任何后续操作）
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusAborted
}

// Action 审批操作类型（对外导出）
// 同时作为WorkflowLog的operation_type记录
type Action int

const (
	// ActionSubmit 提交/待审核
	ActionSubmit Action = 0
	// ActionPass 审核通过
	ActionPass Action = 1
	// ActionReject 审核不通过
	ActionReject Action = 2
	// ActionAbort 审核取消
	ActionAbort Action = 3
	// ActionExecuteSetTime 定时执行
	ActionExecuteSetTime Action = 4
	// ActionExecuteStart 开始执行
	ActionExecuteStart Action = 5
	// ActionExecuteEnd 执行结束
	ActionExecuteEnd Action = 6
	// ActionExecuteFail 执行失败
	ActionExecuteFail Action = 7
)

// String 返回操作类型的中文描述
func (a Action) String() string {
	switch a {
	case ActionSubmit:
		return "提交"
	case ActionPass:
		return "审批通过"
	case ActionReject:
		return "审批不通过"
	case ActionAbort:
		return "审批取消"
	case ActionExecuteSetTime:
		return "定时执行"
	case ActionExecuteStart:
		return "开始执行"
	case ActionExecuteEnd:
		return "执行结束"
	case ActionExecuteFail:
		return "执行失败"
	default:
		return "未知操作"
	}
}

// WorkflowType 业务工单类型（对外导出）
// workflow_id + workflow_type 共同组成对业务表的多态引用
type WorkflowType int

const (
	// TypeSQLReview SQL上线工单
	TypeSQLReview WorkflowType = 1
	// TypeQuery 查询权限申请
	TypeQuery WorkflowType = 2
	// TypeArchive 数据归档申请
	TypeArchive WorkflowType = 3
)

// String 返回工单类型的中文描述
func (t WorkflowType) String() string {
	switch t {
	case TypeSQLReview:
		return "SQL上线申请"
	case TypeQuery:
		return "查询权限申请"
	case TypeArchive:
		return "数据归档申请"
	default:
		return "未知类型"
	}
}

// GroupID 审批组ID（对外导出）
type GroupID int64

// NoGroup 哨兵值：无审批组/审批流已走完
// 不要直接与-1比较，使用IsNone判断
const NoGroup GroupID = -1

// IsNone 是否为"无审批组/已结束"哨兵
func (g GroupID) IsNone() bool {
	return g == NoGroup
}

// WorkflowAudit 审批单（对外导出）
// 每个业务工单实例至多存在一条，(workflow_id, workflow_type) 唯一
type WorkflowAudit struct {
	AuditID       string       // 审批单ID（UUID）
	GroupID       int64        // 提交工单的资源组ID
	GroupName     string       // 提交工单的资源组名称
	WorkflowID    int64        // 业务工单ID
	WorkflowType  WorkflowType // 业务工单类型
	Title         string       // 工单标题
	Remark        string       // 工单备注
	AuthGroups    AuthGroups   // 审批流（有序审批组链）
	CurrentAudit  GroupID      // 当前待审批组，NoGroup表示无需审批或已结束
	NextAudit     GroupID      // 下一审批组，NoGroup表示当前为最后一级
	Status        Status       // 审批单状态
	CreateUser    string       // 申请人
	CreateTime    time.Time    // 创建时间
	SysTime       time.Time    // 最后更新时间
}

// CurrentStep 返回当前审批组在审批流中的位置（0起），不在链上返回-1
func (a *WorkflowAudit) CurrentStep() int {
	return a.AuthGroups.IndexOf(a.CurrentAudit)
}

// WorkflowLog 审批日志（对外导出），只追加、不更新
type WorkflowLog struct {
	LogID           string    // 日志ID（UUID）
	AuditID         string    // 关联审批单ID
	Operation       Action    // 操作类型
	Operator        string    // 操作人
	OperatorDisplay string    // 操作人显示名
	Info            string    // 操作信息/备注
	CreateTime      time.Time // 操作时间
}

// AuditSetting 审批流解析结果（对外导出），瞬态值，不直接落库
type AuditSetting struct {
	AutoPass   bool       // 是否自动审核通过（无需人工审批）
	AuthGroups AuthGroups // 有序审批组链
}

// AutoPassLabel 自动审批通过时回写业务工单的审批流展示标签
const AutoPassLabel = "自动审批"

// NoReviewLabel 无需审批时的展示标签
const NoReviewLabel = "无需审批"

// LabelInDB 返回回写到业务工单audit_auth_groups字段的标签
func (s AuditSetting) LabelInDB() string {
	if s.AutoPass {
		return AutoPassLabel
	}
	return s.AuthGroups.String()
}

// WorkflowAuditSetting 审批流配置（对外导出）
// (workflow_type, group_id) -> 有序审批组链，缺失表示该类型回退默认策略
type WorkflowAuditSetting struct {
	SettingID    string       // 配置ID（UUID）
	WorkflowType WorkflowType // 工单类型
	GroupID      int64        // 资源组ID
	AuthGroups   AuthGroups   // 有序审批组链
	SysTime      time.Time    // 最后更新时间
}
