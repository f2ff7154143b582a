package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/api"
	"github.com/lanheader/Archery/pkg/api/dto"
	"github.com/lanheader/Archery/pkg/config"
	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/auth"
	"github.com/lanheader/Archery/pkg/core/engine"
	"github.com/lanheader/Archery/pkg/core/events"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage"
	"github.com/lanheader/Archery/pkg/storage/sqlite"
)

// newTestRouter 组装完整API栈：sqlite存储 + 引擎 + gin路由
func newTestRouter(t *testing.T) (http.Handler, *storage.TicketRepo, *auth.StaticProvider) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect := sqlite.NewSQLiteDialect()
	require.NoError(t, storage.InitSchema(db, dialect))

	ctx := context.Background()
	tickets := storage.NewTicketRepo(db)
	settings := storage.NewSettingRepo(db, dialect)
	provider := auth.NewStaticProvider()
	provider.AddGroup(2, "DBA")
	provider.AddGroup(3, "运维")

	registry := workflow.NewRegistry()
	registry.Register(audit.TypeSQLReview,
		storage.NewTicketResolver(tickets, audit.TypeSQLReview, nil), workflow.PermSQLReview)
	registry.Register(audit.TypeQuery,
		storage.NewTicketResolver(tickets, audit.TypeQuery, nil), workflow.PermQueryReview)

	pub := events.NewPublisher(false)
	t.Cleanup(func() { pub.Close() })

	eng, err := engine.NewEngine(engine.Deps{
		Audits:    storage.NewAuditRepo(db, dialect),
		Settings:  settings,
		Registry:  registry,
		Auth:      provider,
		SysConfig: config.NewMemorySysConfig(),
		Publisher: pub,
	})
	require.NoError(t, err)

	// 预置业务工单与审批流
	require.NoError(t, tickets.Create(ctx, &workflow.Workflow{
		ID: 100, Type: audit.TypeSQLReview, Title: "测试工单",
		GroupID: 1, GroupName: "some_group", Submitter: "some_user",
	}))
	require.NoError(t, settings.Upsert(ctx, audit.TypeSQLReview, 1, audit.AuthGroups{2, 3}))

	return api.SetupRouter(eng, pub, "test"), tickets, provider
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var resp dto.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestRouter_Health(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	health := decodeData[dto.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestRouter_CreateAndOperate(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// 创建审批单
	w := doJSON(t, router, http.MethodPost, "/api/v1/audits", dto.CreateAuditRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decodeData[dto.AuditDetail](t, w)
	assert.Equal(t, int(audit.StatusWaiting), detail.Status)
	assert.Equal(t, "2,3", detail.AuthGroups)
	assert.Equal(t, int64(2), detail.CurrentAudit)

	// 重复创建
	w = doJSON(t, router, http.MethodPost, "/api/v1/audits", dto.CreateAuditRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 第一级审批通过
	w = doJSON(t, router, http.MethodPost, "/api/v1/audits/operate", dto.OperateRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
		Action: int(audit.ActionPass), Operator: "reviewer1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	op := decodeData[dto.OperateResponse](t, w)
	assert.Equal(t, int(audit.StatusWaiting), op.Status)
	assert.Equal(t, detail.AuditID, op.AuditID)

	// 非法操作：待审核状态不允许开始执行
	w = doJSON(t, router, http.MethodPost, "/api/v1/audits/operate", dto.OperateRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
		Action: int(audit.ActionExecuteStart), Operator: "reviewer1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 详情与日志
	w = doJSON(t, router, http.MethodGet, "/api/v1/audits/"+detail.AuditID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[dto.AuditDetail](t, w)
	assert.Equal(t, int64(3), got.CurrentAudit)

	w = doJSON(t, router, http.MethodGet, "/api/v1/audits/"+detail.AuditID+"/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeData[dto.ListResponse[dto.LogItem]](t, w)
	assert.Equal(t, 2, logs.Total)
}

func TestRouter_CreateMissingTicket(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/audits", dto.CreateAuditRequest{
		WorkflowID: 999, WorkflowType: int(audit.TypeSQLReview),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ReviewInfoAndCanReview(t *testing.T) {
	router, _, provider := newTestRouter(t)

	provider.GrantPermission("reviewer", workflow.PermSQLReview)
	provider.AddGroupMember(2, "reviewer")

	w := doJSON(t, router, http.MethodPost, "/api/v1/audits", dto.CreateAuditRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/workflows/1/100/review_info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeData[dto.ReviewInfoResponse](t, w)
	assert.Equal(t, "DBA->运维", info.AuthGroups)
	assert.Equal(t, "DBA", info.CurrentGroup)

	w = doJSON(t, router, http.MethodGet, "/api/v1/workflows/1/100/can_review?user=reviewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[bool](t, w))

	w = doJSON(t, router, http.MethodGet, "/api/v1/workflows/1/100/can_review?user=nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[bool](t, w))

	// 缺少user参数
	w = doJSON(t, router, http.MethodGet, "/api/v1/workflows/1/100/can_review", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Todo(t *testing.T) {
	router, _, provider := newTestRouter(t)

	provider.AddSuperuser("admin")

	w := doJSON(t, router, http.MethodPost, "/api/v1/audits", dto.CreateAuditRequest{
		WorkflowID: 100, WorkflowType: int(audit.TypeSQLReview),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/todo?user=admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[dto.ListResponse[dto.AuditDetail]](t, w)
	assert.Equal(t, 1, list.Total)

	w = doJSON(t, router, http.MethodGet, "/api/v1/todo", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Settings(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// 预置的配置可查
	w := doJSON(t, router, http.MethodGet, "/api/v1/settings/1/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[dto.SettingsResponse](t, w)
	assert.Equal(t, "2,3", got.AuthGroups)

	// 未配置返回404
	w = doJSON(t, router, http.MethodGet, "/api/v1/settings/2/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 修改后可查
	w = doJSON(t, router, http.MethodPut, "/api/v1/settings/2/1", dto.ChangeSettingsRequest{
		AuthGroups: "5",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/v1/settings/2/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeData[dto.SettingsResponse](t, w)
	assert.Equal(t, "5", got.AuthGroups)

	// 非法审批流
	w = doJSON(t, router, http.MethodPut, "/api/v1/settings/2/1", dto.ChangeSettingsRequest{
		AuthGroups: "a,b",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
