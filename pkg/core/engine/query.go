package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lanheader/Archery/pkg/config"
	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
)

// FetchWorkflow 按多态引用查询业务工单（对外导出），不存在返回(nil, nil)
func (e *Engine) FetchWorkflow(ctx context.Context, workflowID int64, t audit.WorkflowType) (*workflow.Workflow, error) {
	resolver, ok := e.registry.Resolver(t)
	if !ok {
		return nil, fmt.Errorf("未注册的工单类型: %d", t)
	}
	return resolver.Fetch(ctx, workflowID)
}

// Detail 按审批单ID查询（对外导出），不存在返回(nil, nil)
func (e *Engine) Detail(ctx context.Context, auditID string) (*audit.WorkflowAudit, error) {
	return e.audits.GetByID(ctx, auditID)
}

// DetailByWorkflow 按业务工单查询审批单（对外导出），不存在返回(nil, nil)
func (e *Engine) DetailByWorkflow(ctx context.Context, workflowID int64, t audit.WorkflowType) (*audit.WorkflowAudit, error) {
	return e.audits.GetByWorkflow(ctx, workflowID, t)
}

// Settings 查询审批流配置的原始链串（对外导出）
// 未配置时found为false
func (e *Engine) Settings(ctx context.Context, t audit.WorkflowType, groupID int64) (chain string, found bool, err error) {
	setting, err := e.settings.Get(ctx, t, groupID)
	if err != nil {
		return "", false, err
	}
	if setting == nil {
		return "", false, nil
	}
	return setting.AuthGroups.String(), true, nil
}

// ChangeSettings 修改审批流配置（对外导出），存在则更新，不存在则插入
func (e *Engine) ChangeSettings(ctx context.Context, t audit.WorkflowType, groupID int64, groups audit.AuthGroups) error {
	return e.settings.Upsert(ctx, t, groupID, groups)
}

// CanReview 判断用户当前是否可审核指定工单（对外导出）
// 超级管理员：工单处于待审核即可；
// 普通用户：需持有该类型的审核权限、属于当前审批组、工单待审核，
// 且在ban_self_audit开启时不能审核自己提交的工单。
// 当前审批组无法解析时返回audit.ErrDataIntegrity，显式暴露脏数据
func (e *Engine) CanReview(ctx context.Context, user string, workflowID int64, t audit.WorkflowType) (bool, error) {
	rec, err := e.audits.GetByWorkflow(ctx, workflowID, t)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.Status != audit.StatusWaiting {
		return false, nil
	}

	super, err := e.auth.IsSuperuser(ctx, user)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}

	perm, ok := e.registry.ReviewPermission(t)
	if !ok {
		return false, fmt.Errorf("未注册的工单类型: %d", t)
	}
	has, err := e.auth.HasPermission(ctx, user, perm)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}

	_, found, err := e.auth.GroupName(ctx, rec.CurrentAudit)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: auth_group_id=%d", audit.ErrDataIntegrity, rec.CurrentAudit)
	}
	in, err := e.auth.UserInGroup(ctx, user, rec.CurrentAudit)
	if err != nil {
		return false, err
	}
	if !in {
		return false, nil
	}

	if e.sysConfig.GetBool(config.KeyBanSelfAudit) && user == rec.CreateUser {
		return false, nil
	}
	return true, nil
}

// ReviewInfo 审批流展示信息（对外导出）
type ReviewInfo struct {
	// AuthGroups 完整审批流的展示标签，无需审批时为"无需审批"
	AuthGroups string
	// CurrentGroup 当前审批组的展示标签，审批流已走完时为空
	CurrentGroup string
}

// ReviewInfo 查询工单的审批流与当前审批组展示信息（对外导出）
// 审批单不存在返回(nil, nil)
func (e *Engine) ReviewInfo(ctx context.Context, workflowID int64, t audit.WorkflowType) (*ReviewInfo, error) {
	rec, err := e.audits.GetByWorkflow(ctx, workflowID, t)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.AuthGroups.IsEmpty() {
		return &ReviewInfo{AuthGroups: audit.NoReviewLabel}, nil
	}

	names := make([]string, 0, len(rec.AuthGroups))
	for _, g := range rec.AuthGroups {
		names = append(names, e.groupLabel(ctx, g))
	}
	info := &ReviewInfo{AuthGroups: strings.Join(names, "->")}
	if !rec.CurrentAudit.IsNone() {
		info.CurrentGroup = e.groupLabel(ctx, rec.CurrentAudit)
	}
	return info, nil
}

// groupLabel 审批组展示名，无法解析时退化为原始ID
func (e *Engine) groupLabel(ctx context.Context, g audit.GroupID) string {
	name, found, err := e.auth.GroupName(ctx, g)
	if err != nil || !found {
		return strconv.FormatInt(int64(g), 10)
	}
	return name
}

// Todo 用户可见的待审核工单列表（对外导出）
// 超级管理员可见全部待审核；普通用户可见当前审批组命中其所属组的待审核
func (e *Engine) Todo(ctx context.Context, user string) ([]*audit.WorkflowAudit, error) {
	super, err := e.auth.IsSuperuser(ctx, user)
	if err != nil {
		return nil, err
	}
	if super {
		return e.audits.ListWaiting(ctx)
	}
	groups, err := e.auth.UserGroups(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return e.audits.ListWaitingForGroups(ctx, groups)
}

// TodoCount 用户可见的待审核工单数量（对外导出）
func (e *Engine) TodoCount(ctx context.Context, user string) (int, error) {
	items, err := e.Todo(ctx, user)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Logs 审批单的全部日志（对外导出），时间正序，可重复调用
func (e *Engine) Logs(ctx context.Context, auditID string) ([]*audit.WorkflowLog, error) {
	return e.audits.Logs(ctx, auditID)
}
