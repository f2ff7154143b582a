package config_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanheader/Archery/pkg/config"
	"github.com/lanheader/Archery/pkg/storage"
	"github.com/lanheader/Archery/pkg/storage/sqlite"
)

func newConfigRepo(t *testing.T) storage.ConfigRepository {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "config_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect := sqlite.NewSQLiteDialect()
	require.NoError(t, storage.InitSchema(db, dialect))
	return storage.NewConfigRepo(db, dialect)
}

func TestSysConfig_LoadFromDB(t *testing.T) {
	repo := newConfigRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, config.KeyAutoReview, "true"))

	// 构造时加载全量配置
	c, err := config.NewSysConfig(ctx, repo)
	require.NoError(t, err)
	assert.True(t, c.GetBool(config.KeyAutoReview))
	assert.False(t, c.GetBool(config.KeyBanSelfAudit))
}

func TestSysConfig_SetRefreshesCache(t *testing.T) {
	repo := newConfigRepo(t)
	ctx := context.Background()

	c, err := config.NewSysConfig(ctx, repo)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, config.KeyBanSelfAudit, "1"))
	assert.True(t, c.GetBool(config.KeyBanSelfAudit))

	// 落库可见：新实例能读到
	c2, err := config.NewSysConfig(ctx, repo)
	require.NoError(t, err)
	assert.True(t, c2.GetBool(config.KeyBanSelfAudit))
}

func TestSysConfig_Purge(t *testing.T) {
	repo := newConfigRepo(t)
	ctx := context.Background()

	c, err := config.NewSysConfig(ctx, repo)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, config.KeyAutoReview, "true"))

	require.NoError(t, c.Purge(ctx))
	assert.False(t, c.GetBool(config.KeyAutoReview))

	_, ok := c.Get(config.KeyAutoReview)
	assert.False(t, ok)
}

func TestSysConfig_MemoryMode(t *testing.T) {
	c := config.NewMemorySysConfig()
	ctx := context.Background()

	assert.False(t, c.GetBool(config.KeyAutoReview))
	require.NoError(t, c.Set(ctx, config.KeyAutoReview, "true"))
	assert.True(t, c.GetBool(config.KeyAutoReview))
	require.NoError(t, c.Purge(ctx))
	assert.False(t, c.GetBool(config.KeyAutoReview))
}
