package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/workflow"
	"github.com/lanheader/Archery/pkg/storage"
	"github.com/lanheader/Archery/pkg/storage/sqlite"
)

func TestSettingRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewSettingRepo(db, sqlite.NewSQLiteDialect())
	ctx := context.Background()

	// 未配置返回(nil, nil)
	got, err := repo.Get(ctx, audit.TypeSQLReview, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 插入
	require.NoError(t, repo.Upsert(ctx, audit.TypeSQLReview, 1, audit.AuthGroups{2, 3}))
	got, err = repo.Get(ctx, audit.TypeSQLReview, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, audit.AuthGroups{2, 3}, got.AuthGroups)

	// 更新同一(类型, 资源组)
	require.NoError(t, repo.Upsert(ctx, audit.TypeSQLReview, 1, audit.AuthGroups{5}))
	got, err = repo.Get(ctx, audit.TypeSQLReview, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, audit.AuthGroups{5}, got.AuthGroups)

	// 不同类型互不影响
	got, err = repo.Get(ctx, audit.TypeQuery, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSettingRepo_EmptyChain(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewSettingRepo(db, sqlite.NewSQLiteDialect())
	ctx := context.Background()

	// 空链是合法配置，表示无需审批
	require.NoError(t, repo.Upsert(ctx, audit.TypeQuery, 1, audit.AuthGroups{}))
	got, err := repo.Get(ctx, audit.TypeQuery, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.AuthGroups.IsEmpty())
}

func TestResourceGroupRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewResourceGroupRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &workflow.ResourceGroup{ID: 1, Name: "some_group"}))

	got, err := repo.GetByName(ctx, "some_group")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "some_group", got.Name)

	// 不存在返回(nil, nil)
	got, err = repo.GetByName(ctx, "no_such_group")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConfigRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := storage.NewConfigRepo(db, sqlite.NewSQLiteDialect())
	ctx := context.Background()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.Set(ctx, "auto_review", "true"))
	require.NoError(t, repo.Set(ctx, "ban_self_audit", "false"))
	// 覆盖写
	require.NoError(t, repo.Set(ctx, "ban_self_audit", "true"))

	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"auto_review":    "true",
		"ban_self_audit": "true",
	}, all)

	require.NoError(t, repo.Purge(ctx))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
