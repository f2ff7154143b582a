package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/storage"
	"github.com/lanheader/Archery/pkg/storage/sqlite"
)

// setupTestDB 创建带完整表结构的测试数据库
func setupTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "audit_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.InitSchema(db, sqlite.NewSQLiteDialect()))
	return db
}

func newTestRepo(t *testing.T) (*storage.AuditRepo, *sqlx.DB) {
	db := setupTestDB(t)
	return storage.NewAuditRepo(db, sqlite.NewSQLiteDialect()), db
}

func newTestAudit(workflowID int64) *audit.WorkflowAudit {
	now := time.Now()
	return &audit.WorkflowAudit{
		AuditID:      uuid.NewString(),
		GroupID:      1,
		GroupName:    "some_group",
		WorkflowID:   workflowID,
		WorkflowType: audit.TypeSQLReview,
		Title:        "测试工单",
		AuthGroups:   audit.AuthGroups{2, 3},
		CurrentAudit: 2,
		NextAudit:    3,
		Status:       audit.StatusWaiting,
		CreateUser:   "some_user",
		CreateTime:   now,
		SysTime:      now,
	}
}

func newTestLog(auditID string, action audit.Action, info string) *audit.WorkflowLog {
	return &audit.WorkflowLog{
		LogID:      uuid.NewString(),
		AuditID:    auditID,
		Operation:  action,
		Operator:   "some_user",
		Info:       info,
		CreateTime: time.Now(),
	}
}

func TestAuditRepo_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := newTestAudit(100)
	lg := newTestLog(rec.AuditID, audit.ActionSubmit, "提交")
	require.NoError(t, repo.CreateAudit(ctx, rec, lg, nil))

	got, err := repo.GetByID(ctx, rec.AuditID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.AuditID, got.AuditID)
	assert.Equal(t, audit.AuthGroups{2, 3}, got.AuthGroups)
	assert.Equal(t, audit.GroupID(2), got.CurrentAudit)
	assert.Equal(t, audit.GroupID(3), got.NextAudit)
	assert.Equal(t, audit.StatusWaiting, got.Status)

	got, err = repo.GetByWorkflow(ctx, 100, audit.TypeSQLReview)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.AuditID, got.AuditID)
}

func TestAuditRepo_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "no-such-audit")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByWorkflow(ctx, 999, audit.TypeQuery)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuditRepo_DuplicateCreate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := newTestAudit(100)
	require.NoError(t, repo.CreateAudit(ctx, rec, newTestLog(rec.AuditID, audit.ActionSubmit, "提交"), nil))

	// 同一业务工单再次创建
	dup := newTestAudit(100)
	err := repo.CreateAudit(ctx, dup, newTestLog(dup.AuditID, audit.ActionSubmit, "提交"), nil)
	require.ErrorIs(t, err, audit.ErrDuplicateSubmission)

	// 失败的创建不留下日志
	logs, err := repo.Logs(ctx, dup.AuditID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	// 同一工单ID不同类型可以创建
	other := newTestAudit(100)
	other.WorkflowType = audit.TypeQuery
	require.NoError(t, repo.CreateAudit(ctx, other, newTestLog(other.AuditID, audit.ActionSubmit, "提交"), nil))
}

func TestAuditRepo_UpdateAudit(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	prev := newTestAudit(100)
	require.NoError(t, repo.CreateAudit(ctx, prev, newTestLog(prev.AuditID, audit.ActionSubmit, "提交"), nil))

	// 第一级通过，推进到下一组
	next := *prev
	next.CurrentAudit = 3
	next.NextAudit = audit.NoGroup
	next.SysTime = time.Now()
	require.NoError(t, repo.UpdateAudit(ctx, &next, prev, newTestLog(prev.AuditID, audit.ActionPass, "审批通过"), nil))

	got, err := repo.GetByID(ctx, prev.AuditID)
	require.NoError(t, err)
	assert.Equal(t, audit.GroupID(3), got.CurrentAudit)
	assert.True(t, got.NextAudit.IsNone())
	assert.Equal(t, audit.StatusWaiting, got.Status)

	logs, err := repo.Logs(ctx, prev.AuditID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, audit.ActionSubmit, logs[0].Operation)
	assert.Equal(t, audit.ActionPass, logs[1].Operation)
}

func TestAuditRepo_UpdateAudit_StalePrev(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	prev := newTestAudit(100)
	require.NoError(t, repo.CreateAudit(ctx, prev, newTestLog(prev.AuditID, audit.ActionSubmit, "提交"), nil))

	// 第一次推进成功
	next := *prev
	next.CurrentAudit = 3
	next.NextAudit = audit.NoGroup
	require.NoError(t, repo.UpdateAudit(ctx, &next, prev, newTestLog(prev.AuditID, audit.ActionPass, "审批通过"), nil))

	// 基于同一旧快照的并发推进被乐观校验挡住：
	// 状态仍是WAITING，但current_audit已变
	again := *prev
	again.CurrentAudit = 3
	again.NextAudit = audit.NoGroup
	err := repo.UpdateAudit(ctx, &again, prev, newTestLog(prev.AuditID, audit.ActionPass, "审批通过"), nil)
	require.ErrorIs(t, err, audit.ErrConcurrentOperate)

	// 失败的更新不追加日志
	logs, err := repo.Logs(ctx, prev.AuditID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAuditRepo_ListWaiting(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	waiting := newTestAudit(100)
	require.NoError(t, repo.CreateAudit(ctx, waiting, newTestLog(waiting.AuditID, audit.ActionSubmit, "提交"), nil))

	passed := newTestAudit(101)
	passed.Status = audit.StatusPassed
	passed.CurrentAudit = audit.NoGroup
	passed.NextAudit = audit.NoGroup
	require.NoError(t, repo.CreateAudit(ctx, passed, newTestLog(passed.AuditID, audit.ActionSubmit, "提交"), nil))

	list, err := repo.ListWaiting(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, waiting.AuditID, list[0].AuditID)
}

func TestAuditRepo_ListWaitingForGroups(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	atGroup2 := newTestAudit(100)
	require.NoError(t, repo.CreateAudit(ctx, atGroup2, newTestLog(atGroup2.AuditID, audit.ActionSubmit, "提交"), nil))

	atGroup5 := newTestAudit(101)
	atGroup5.AuthGroups = audit.AuthGroups{5}
	atGroup5.CurrentAudit = 5
	atGroup5.NextAudit = audit.NoGroup
	require.NoError(t, repo.CreateAudit(ctx, atGroup5, newTestLog(atGroup5.AuditID, audit.ActionSubmit, "提交"), nil))

	list, err := repo.ListWaitingForGroups(ctx, []audit.GroupID{2, 99})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, atGroup2.AuditID, list[0].AuditID)

	// 空组集合直接返回空
	list, err = repo.ListWaitingForGroups(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAuditRepo_PurgeLogs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := newTestAudit(100)
	oldLog := newTestLog(rec.AuditID, audit.ActionSubmit, "提交")
	oldLog.CreateTime = time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.CreateAudit(ctx, rec, oldLog, nil))

	next := *rec
	next.CurrentAudit = 3
	require.NoError(t, repo.UpdateAudit(ctx, &next, rec, newTestLog(rec.AuditID, audit.ActionPass, "审批通过"), nil))

	n, err := repo.PurgeLogs(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, err := repo.Logs(ctx, rec.AuditID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionPass, logs[0].Operation)
}

func TestAuditRepo_WriteBackHook(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	// 预置业务工单行
	ticketRepo := storage.NewTicketRepo(db)
	wf := newTestTicket(100)
	require.NoError(t, ticketRepo.Create(ctx, wf))

	rec := newTestAudit(100)
	hook := func(ctx context.Context, tx *sqlx.Tx) error {
		return ticketRepo.WriteBackAuthGroups(ctx, tx, audit.TypeSQLReview, 100, "2,3")
	}
	require.NoError(t, repo.CreateAudit(ctx, rec, newTestLog(rec.AuditID, audit.ActionSubmit, "提交"), hook))

	got, err := ticketRepo.Get(ctx, audit.TypeSQLReview, 100)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2,3", got.AuthGroupsLabel)
}
