// Package handler 实现审批API处理器
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lanheader/Archery/pkg/api/dto"
	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/engine"
)

// AuditHandler 审批API处理器
type AuditHandler struct {
	engine *engine.Engine
}

// NewAuditHandler 创建AuditHandler
func NewAuditHandler(eng *engine.Engine) *AuditHandler {
	return &AuditHandler{engine: eng}
}

// Create 创建审批单
// POST /api/v1/audits
func (h *AuditHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("参数错误: %v", err)))
		return
	}

	a, err := h.auditHandle(c, req.WorkflowID, req.WorkflowType, req.ResourceGroup)
	if err != nil {
		return
	}
	rec, err := a.CreateAudit(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(auditToDetail(rec)))
}

// Operate 执行审批操作
// POST /api/v1/audits/operate
func (h *AuditHandler) Operate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OperateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("参数错误: %v", err)))
		return
	}

	a, err := h.auditHandle(c, req.WorkflowID, req.WorkflowType, "")
	if err != nil {
		return
	}
	lg, err := a.Operate(ctx, audit.Action(req.Action), req.Operator, req.Note)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OperateResponse{
		AuditID: a.Record().AuditID,
		Status:  int(a.Record().Status),
		Log:     logToItem(lg),
	}))
}

// Detail 审批单详情
// GET /api/v1/audits/:id
func (h *AuditHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()

	rec, err := h.engine.Detail(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询审批单失败: %v", err)))
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "审批单不存在"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(auditToDetail(rec)))
}

// Logs 审批单日志
// GET /api/v1/audits/:id/logs
func (h *AuditHandler) Logs(c *gin.Context) {
	ctx := c.Request.Context()

	logs, err := h.engine.Logs(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询审批日志失败: %v", err)))
		return
	}
	items := make([]dto.LogItem, 0, len(logs))
	for _, lg := range logs {
		items = append(items, logToItem(lg))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.LogItem]{Total: len(items), Items: items}))
}

// Todo 用户待审核列表
// GET /api/v1/todo?user=xxx
func (h *AuditHandler) Todo(c *gin.Context) {
	ctx := c.Request.Context()

	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少user参数"))
		return
	}
	items, err := h.engine.Todo(ctx, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询待办失败: %v", err)))
		return
	}
	out := make([]dto.AuditDetail, 0, len(items))
	for _, rec := range items {
		out = append(out, auditToDetail(rec))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.AuditDetail]{Total: len(out), Items: out}))
}

// ReviewInfo 工单审批流展示信息
// GET /api/v1/workflows/:type/:id/review_info
func (h *AuditHandler) ReviewInfo(c *gin.Context) {
	ctx := c.Request.Context()

	t, workflowID, ok := h.workflowRef(c)
	if !ok {
		return
	}
	info, err := h.engine.ReviewInfo(ctx, workflowID, t)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "审批单不存在"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ReviewInfoResponse{
		AuthGroups:   info.AuthGroups,
		CurrentGroup: info.CurrentGroup,
	}))
}

// CanReview 当前用户是否可审核该工单
// GET /api/v1/workflows/:type/:id/can_review?user=xxx
func (h *AuditHandler) CanReview(c *gin.Context) {
	ctx := c.Request.Context()

	t, workflowID, ok := h.workflowRef(c)
	if !ok {
		return
	}
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少user参数"))
		return
	}
	can, err := h.engine.CanReview(ctx, user, workflowID, t)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(can))
}

// GetSettings 查询审批流配置
// GET /api/v1/settings/:type/:group
func (h *AuditHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()

	t, groupID, ok := h.settingRef(c)
	if !ok {
		return
	}
	chain, found, err := h.engine.Settings(ctx, t, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询审批流配置失败: %v", err)))
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "审批流未配置"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SettingsResponse{
		WorkflowType: int(t),
		GroupID:      groupID,
		AuthGroups:   chain,
	}))
}

// PutSettings 修改审批流配置
// PUT /api/v1/settings/:type/:group
func (h *AuditHandler) PutSettings(c *gin.Context) {
	ctx := c.Request.Context()

	t, groupID, ok := h.settingRef(c)
	if !ok {
		return
	}
	var req dto.ChangeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("参数错误: %v", err)))
		return
	}
	groups, err := audit.ParseAuthGroups(req.AuthGroups)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("参数错误: %v", err)))
		return
	}
	if err := h.engine.ChangeSettings(ctx, t, groupID, groups); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("保存审批流配置失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}

// auditHandle 按业务工单构造审批句柄，处理不存在与参数错误
func (h *AuditHandler) auditHandle(c *gin.Context, workflowID int64, workflowType int, resourceGroup string) (*engine.Audit, error) {
	ctx := c.Request.Context()

	t := audit.WorkflowType(workflowType)
	rec, err := h.engine.DetailByWorkflow(ctx, workflowID, t)
	if err != nil {
		h.renderError(c, err)
		return nil, err
	}

	opts := engine.AuditOptions{ResourceGroup: resourceGroup}
	if rec != nil {
		opts.Audit = rec
	} else {
		wf, err := h.engine.FetchWorkflow(ctx, workflowID, t)
		if err != nil {
			h.renderError(c, err)
			return nil, err
		}
		if wf == nil {
			err := fmt.Errorf("业务工单不存在")
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
			return nil, err
		}
		opts.Workflow = wf
	}

	a, err := h.engine.NewAudit(ctx, opts)
	if err != nil {
		h.renderError(c, err)
		return nil, err
	}
	return a, nil
}

func (h *AuditHandler) workflowRef(c *gin.Context) (audit.WorkflowType, int64, bool) {
	t, err := strconv.Atoi(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "非法的工单类型"))
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "非法的工单ID"))
		return 0, 0, false
	}
	return audit.WorkflowType(t), id, true
}

func (h *AuditHandler) settingRef(c *gin.Context) (audit.WorkflowType, int64, bool) {
	t, err := strconv.Atoi(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "非法的工单类型"))
		return 0, 0, false
	}
	groupID, err := strconv.ParseInt(c.Param("group"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "非法的资源组ID"))
		return 0, 0, false
	}
	return audit.WorkflowType(t), groupID, true
}

// renderError 按错误分类映射HTTP状态码
func (h *AuditHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, audit.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	case errors.Is(err, audit.ErrActionNotAllowed):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
	case errors.Is(err, audit.ErrNoAuditFlow),
		errors.Is(err, audit.ErrResourceGroupNotFound),
		errors.Is(err, audit.ErrInvalidInit):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
	case errors.Is(err, audit.ErrConcurrentOperate):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	case errors.Is(err, audit.ErrDataIntegrity):
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
	}
}

func auditToDetail(rec *audit.WorkflowAudit) dto.AuditDetail {
	return dto.AuditDetail{
		AuditID:      rec.AuditID,
		GroupID:      rec.GroupID,
		GroupName:    rec.GroupName,
		WorkflowID:   rec.WorkflowID,
		WorkflowType: int(rec.WorkflowType),
		Title:        rec.Title,
		Remark:       rec.Remark,
		AuthGroups:   rec.AuthGroups.String(),
		CurrentAudit: int64(rec.CurrentAudit),
		NextAudit:    int64(rec.NextAudit),
		Status:       int(rec.Status),
		StatusLabel:  rec.Status.String(),
		CreateUser:   rec.CreateUser,
		CreateTime:   rec.CreateTime,
	}
}

func logToItem(lg *audit.WorkflowLog) dto.LogItem {
	return dto.LogItem{
		LogID:           lg.LogID,
		Operation:       int(lg.Operation),
		OperationLabel:  lg.Operation.String(),
		Operator:        lg.Operator,
		OperatorDisplay: lg.OperatorDisplay,
		Info:            lg.Info,
		CreateTime:      lg.CreateTime,
	}
}
