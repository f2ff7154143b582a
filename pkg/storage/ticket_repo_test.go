package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage"
)

func newTestTicket(workflowID int64) *workflow.Workflow {
	return &workflow.Workflow{
		ID:               workflowID,
		Type:             audit.TypeSQLReview,
		Title:            "测试工单",
		Remark:           "remark",
		GroupID:          1,
		GroupName:        "some_group",
		Submitter:        "some_user",
		SubmitterDisplay: "张三",
	}
}

func TestTicketRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewTicketRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestTicket(100)))

	got, err := repo.Get(ctx, audit.TypeSQLReview, 100)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "测试工单", got.Title)
	assert.Equal(t, "some_user", got.Submitter)

	// 同ID不同类型视为不同工单
	got, err = repo.Get(ctx, audit.TypeQuery, 100)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTicketResolver(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewTicketRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestTicket(100)))

	resolver := storage.NewTicketResolver(repo, audit.TypeSQLReview, nil)

	wf, err := resolver.Fetch(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, wf)
	assert.Equal(t, int64(100), wf.ID)

	// autoReview未配置时永不自动审核
	ok, err := resolver.AutoReview(ctx, wf)
	require.NoError(t, err)
	assert.False(t, ok)
}
