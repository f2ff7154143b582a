package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	p.AddSuperuser("admin")
	p.GrantPermission("reviewer", "sql_review")
	p.AddGroup(2, "DBA")
	p.AddGroupMember(2, "reviewer")

	ok, err := p.IsSuperuser(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.IsSuperuser(ctx, "reviewer")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.HasPermission(ctx, "reviewer", "sql_review")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.HasPermission(ctx, "reviewer", "archive_review")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.UserInGroup(ctx, "reviewer", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.UserInGroup(ctx, "reviewer", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	groups, err := p.UserGroups(ctx, "reviewer")
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	name, found, err := p.GroupName(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "DBA", name)

	_, found, err = p.GroupName(ctx, 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStaticProvider_AddGroupMemberCreatesGroup(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	p.AddGroupMember(5, "some_user")

	ok, err := p.UserInGroup(ctx, "some_user", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	// 自动创建的组没有名称
	name, found, err := p.GroupName(ctx, 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, name)
}
