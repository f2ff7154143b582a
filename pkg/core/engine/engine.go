// Package engine 实现多级审批状态机引擎
// 引擎负责创建审批单、校验并应用状态迁移、记录审批日志；业务动作
// （SQL执行、数据导出、归档任务）由调用方根据迁移结果自行触发
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lanheader/Archery/pkg/config"
	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/auth"
	"github.com/lanheader/Archery/pkg/core/events"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage"
)

// Deps 引擎依赖（对外导出）
type Deps struct {
	Audits         storage.AuditRepository
	Settings       storage.SettingRepository
	ResourceGroups storage.ResourceGroupRepository
	Registry       *workflow.Registry
	Auth           auth.Provider
	SysConfig      *config.SysConfig
	Publisher      *events.Publisher // 可选，nil时不发布事件
}

// Engine 审批引擎（对外导出）
// 长生命周期对象，查询类接口直接挂在Engine上；
// 针对单个工单的创建/操作通过NewAudit获取句柄后进行
type Engine struct {
	audits         storage.AuditRepository
	settings       storage.SettingRepository
	resourceGroups storage.ResourceGroupRepository
	registry       *workflow.Registry
	auth           auth.Provider
	sysConfig      *config.SysConfig
	publisher      *events.Publisher
}

// NewEngine 创建审批引擎实例（对外导出的工厂方法）
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Audits == nil || deps.Settings == nil || deps.Registry == nil || deps.Auth == nil {
		return nil, fmt.Errorf("创建审批引擎失败: 缺少必要依赖")
	}
	sysConfig := deps.SysConfig
	if sysConfig == nil {
		sysConfig = config.NewMemorySysConfig()
	}
	return &Engine{
		audits:         deps.Audits,
		settings:       deps.Settings,
		resourceGroups: deps.ResourceGroups,
		registry:       deps.Registry,
		auth:           deps.Auth,
		sysConfig:      sysConfig,
		publisher:      deps.Publisher,
	}, nil
}

// AuditOptions 审批句柄的初始化参数（对外导出）
// Audit与Workflow必须且只能提供一个
type AuditOptions struct {
	// Audit 已存在的审批单，引擎将按其多态引用反查业务工单
	Audit *audit.WorkflowAudit
	// Workflow 业务工单，尚未创建审批单时使用
	Workflow *workflow.Workflow
	// ResourceGroup 资源组名称，仅归档工单需要
	ResourceGroup string
}

// Audit 单个工单的审批操作句柄（对外导出）
type Audit struct {
	engine        *Engine
	workflowType  audit.WorkflowType
	workflow      *workflow.Workflow
	resolver      workflow.Resolver
	resourceGroup *workflow.ResourceGroup // 仅归档工单
	audit         *audit.WorkflowAudit    // 未创建审批单时为nil
}

// NewAudit 创建审批句柄（对外导出）
// 两种初始化方式互斥：传入已有审批单，或传入业务工单
func (e *Engine) NewAudit(ctx context.Context, opts AuditOptions) (*Audit, error) {
	if opts.Audit == nil && opts.Workflow == nil {
		return nil, audit.ErrInvalidInit
	}

	a := &Audit{engine: e}

	if opts.Audit != nil {
		a.audit = opts.Audit
		a.workflowType = opts.Audit.WorkflowType
		resolver, ok := e.registry.Resolver(a.workflowType)
		if !ok {
			return nil, fmt.Errorf("未注册的工单类型: %d", a.workflowType)
		}
		a.resolver = resolver
		wf, err := resolver.Fetch(ctx, opts.Audit.WorkflowID)
		if err != nil {
			return nil, fmt.Errorf("查询业务工单失败: %w", err)
		}
		if wf == nil {
			return nil, fmt.Errorf("审批单 %s 关联的业务工单不存在", opts.Audit.AuditID)
		}
		a.workflow = wf
	} else {
		a.workflow = opts.Workflow
		a.workflowType = opts.Workflow.Type
		resolver, ok := e.registry.Resolver(a.workflowType)
		if !ok {
			return nil, fmt.Errorf("未注册的工单类型: %d", a.workflowType)
		}
		a.resolver = resolver

		// 已有审批单则直接挂载，允许对既有工单继续操作
		existing, err := e.audits.GetByWorkflow(ctx, a.workflow.ID, a.workflowType)
		if err != nil {
			return nil, err
		}
		a.audit = existing
	}

	if a.workflowType == audit.TypeArchive {
		if err := a.resolveResourceGroup(ctx, opts.ResourceGroup); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// resolveResourceGroup 归档工单必须关联一个存在的资源组
func (a *Audit) resolveResourceGroup(ctx context.Context, name string) error {
	if a.engine.resourceGroups == nil {
		return fmt.Errorf("归档工单需要资源组存储支持")
	}
	var (
		rg  *workflow.ResourceGroup
		err error
	)
	if name != "" {
		rg, err = a.engine.resourceGroups.GetByName(ctx, name)
	} else {
		rg, err = a.engine.resourceGroups.GetByID(ctx, a.workflow.ResourceGroupID)
	}
	if err != nil {
		return err
	}
	if rg == nil {
		return audit.ErrResourceGroupNotFound
	}
	a.resourceGroup = rg
	return nil
}

// Record 返回当前审批单，尚未创建时为nil
func (a *Audit) Record() *audit.WorkflowAudit {
	return a.audit
}

// GenerateAuditSetting 解析当前工单适用的审批流（对外导出）
// 纯读取，不产生副作用
func (a *Audit) GenerateAuditSetting(ctx context.Context) (audit.AuditSetting, error) {
	if a.engine.sysConfig.GetBool(config.KeyAutoReview) {
		ok, err := a.resolver.AutoReview(ctx, a.workflow)
		if err != nil {
			return audit.AuditSetting{}, fmt.Errorf("自动审核判定失败: %w", err)
		}
		if ok {
			return audit.AuditSetting{AutoPass: true}, nil
		}
	}

	groupID := a.workflow.GroupID
	if a.workflowType == audit.TypeArchive {
		groupID = a.resourceGroup.ID
	}
	setting, err := a.engine.settings.Get(ctx, a.workflowType, groupID)
	if err != nil {
		return audit.AuditSetting{}, err
	}
	if setting == nil {
		return audit.AuditSetting{}, audit.ErrNoAuditFlow
	}
	return audit.AuditSetting{AuthGroups: setting.AuthGroups}, nil
}

// CreateAudit 创建审批单（对外导出）
// 审批单、SUBMIT日志与业务工单标签回写在同一事务内落库；
// 同一业务工单重复创建返回audit.ErrDuplicateSubmission
func (a *Audit) CreateAudit(ctx context.Context) (*audit.WorkflowAudit, error) {
	if a.audit != nil {
		return nil, audit.ErrDuplicateSubmission
	}
	existing, err := a.engine.audits.GetByWorkflow(ctx, a.workflow.ID, a.workflowType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, audit.ErrDuplicateSubmission
	}

	setting, err := a.GenerateAuditSetting(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &audit.WorkflowAudit{
		AuditID:      uuid.NewString(),
		GroupID:      a.workflow.GroupID,
		GroupName:    a.workflow.GroupName,
		WorkflowID:   a.workflow.ID,
		WorkflowType: a.workflowType,
		Title:        a.workflow.Title,
		Remark:       a.workflow.Remark,
		CreateUser:   a.workflow.Submitter,
		CreateTime:   now,
		SysTime:      now,
	}
	if a.workflowType == audit.TypeArchive {
		rec.GroupID = a.resourceGroup.ID
		rec.GroupName = a.resourceGroup.Name
	}

	var logInfo string
	switch {
	case setting.AutoPass:
		rec.Status = audit.StatusPassed
		rec.AuthGroups = audit.AuthGroups{}
		rec.CurrentAudit = audit.NoGroup
		rec.NextAudit = audit.NoGroup
		logInfo = "提交时无需审批, 自动审核通过"
	case setting.AuthGroups.IsEmpty():
		rec.Status = audit.StatusPassed
		rec.AuthGroups = audit.AuthGroups{}
		rec.CurrentAudit = audit.NoGroup
		rec.NextAudit = audit.NoGroup
		logInfo = "提交时无需审批, 直接审核通过"
	default:
		rec.AuthGroups = setting.AuthGroups
		rec.CurrentAudit = setting.AuthGroups.First()
		rec.NextAudit = setting.AuthGroups.After(rec.CurrentAudit)
		rec.Status = audit.StatusWaiting
		logInfo = fmt.Sprintf("提交, 等待审批, 审批流: %s", setting.AuthGroups.String())
	}

	lg := a.newLog(rec.AuditID, audit.ActionSubmit, a.workflow.Submitter, a.workflow.SubmitterDisplay, logInfo)
	writeBack := a.authGroupsWriteBack(setting.LabelInDB())

	if err := a.engine.audits.CreateAudit(ctx, rec, lg, writeBack); err != nil {
		return nil, err
	}
	a.audit = rec
	a.workflow.AuthGroupsLabel = setting.LabelInDB()
	a.engine.publish(rec, audit.ActionSubmit, a.workflow.Submitter)
	return rec, nil
}

// Operate 对审批单执行操作（对外导出）
// 非法的状态/操作组合返回audit.ErrActionNotAllowed，不产生任何写入；
// 成功时恰好追加一条审批日志并返回该日志
func (a *Audit) Operate(ctx context.Context, action audit.Action, operator, note string) (*audit.WorkflowLog, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	prev := a.audit
	if !audit.CanOperate(prev.Status, action) {
		return nil, fmt.Errorf("%w: 状态 %s 不允许 %s", audit.ErrActionNotAllowed, prev.Status, action)
	}

	rec := *prev
	switch action {
	case audit.ActionPass:
		if rec.NextAudit.IsNone() {
			// 最后一级审批，整单通过
			rec.Status = audit.StatusPassed
			rec.CurrentAudit = audit.NoGroup
		} else {
			rec.CurrentAudit = rec.NextAudit
			rec.NextAudit = rec.AuthGroups.After(rec.CurrentAudit)
		}
	case audit.ActionReject:
		rec.Status = audit.StatusRejected
		rec.CurrentAudit = audit.NoGroup
		rec.NextAudit = audit.NoGroup
	case audit.ActionAbort:
		rec.Status = audit.StatusAborted
		rec.CurrentAudit = audit.NoGroup
		rec.NextAudit = audit.NoGroup
	default:
		// 执行类操作只记录日志，审批状态保持PASSED
	}
	rec.SysTime = time.Now()

	info := note
	if info == "" {
		info = action.String()
	}
	lg := a.newLog(rec.AuditID, action, operator, operator, info)

	if err := a.engine.audits.UpdateAudit(ctx, &rec, prev, lg, nil); err != nil {
		return nil, err
	}
	a.audit = &rec
	a.engine.publish(&rec, action, operator)
	return lg, nil
}

// ensureLoaded 按需加载审批单
func (a *Audit) ensureLoaded(ctx context.Context) error {
	if a.audit != nil {
		return nil
	}
	rec, err := a.engine.audits.GetByWorkflow(ctx, a.workflow.ID, a.workflowType)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("业务工单 %d 尚未创建审批单", a.workflow.ID)
	}
	a.audit = rec
	return nil
}

func (a *Audit) newLog(auditID string, action audit.Action, operator, operatorDisplay, info string) *audit.WorkflowLog {
	return &audit.WorkflowLog{
		LogID:           uuid.NewString(),
		AuditID:         auditID,
		Operation:       action,
		Operator:        operator,
		OperatorDisplay: operatorDisplay,
		Info:            info,
		CreateTime:      time.Now(),
	}
}

// authGroupsWriteBack 生成业务工单标签回写钩子，随审批事务一并提交
func (a *Audit) authGroupsWriteBack(label string) storage.TxHook {
	workflowID := a.workflow.ID
	resolver := a.resolver
	return func(ctx context.Context, tx *sqlx.Tx) error {
		return resolver.WriteBackAuthGroups(ctx, tx, workflowID, label)
	}
}

// publish 发布审批迁移事件，尽力而为，失败只记日志
func (e *Engine) publish(rec *audit.WorkflowAudit, action audit.Action, operator string) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(events.NewAuditEvent(rec, action, operator)); err != nil {
		log.Printf("发布审批事件失败: audit_id=%s, err=%v", rec.AuditID, err)
	}
}
