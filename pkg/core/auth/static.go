package auth

import (
	"context"
	"sync"

	"github.com/lanheader/Archery/pkg/core/audit"
)

// StaticProvider 基于内存映射的Provider实现（对外导出）
// 用于测试与单机部署，生产环境应接入外部用户目录
type StaticProvider struct {
	mu         sync.RWMutex
	superusers map[string]bool
	perms      map[string]map[string]bool
	groups     map[audit.GroupID]*staticGroup
}

type staticGroup struct {
	name    string
	members map[string]bool
}

// NewStaticProvider 创建空的StaticProvider
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		superusers: make(map[string]bool),
		perms:      make(map[string]map[string]bool),
		groups:     make(map[audit.GroupID]*staticGroup),
	}
}

// AddSuperuser 标记超级管理员
func (p *StaticProvider) AddSuperuser(user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.superusers[user] = true
}

// GrantPermission 授予用户权限
func (p *StaticProvider) GrantPermission(user, perm string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.perms[user] == nil {
		p.perms[user] = make(map[string]bool)
	}
	p.perms[user][perm] = true
}

// AddGroup 创建审批组
func (p *StaticProvider) AddGroup(id audit.GroupID, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups[id] = &staticGroup{name: name, members: make(map[string]bool)}
}

// AddGroupMember 将用户加入审批组，组不存在时自动创建
func (p *StaticProvider) AddGroupMember(id audit.GroupID, user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.groups[id]
	if !ok {
		g = &staticGroup{members: make(map[string]bool)}
		p.groups[id] = g
	}
	g.members[user] = true
}

// IsSuperuser 实现Provider接口
func (p *StaticProvider) IsSuperuser(ctx context.Context, user string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.superusers[user], nil
}

// HasPermission 实现Provider接口
func (p *StaticProvider) HasPermission(ctx context.Context, user string, perm string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.perms[user][perm], nil
}

// UserInGroup 实现Provider接口
func (p *StaticProvider) UserInGroup(ctx context.Context, user string, group audit.GroupID) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.groups[group]
	if !ok {
		return false, nil
	}
	return g.members[user], nil
}

// UserGroups 实现Provider接口
func (p *StaticProvider) UserGroups(ctx context.Context, user string) ([]audit.GroupID, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ids []audit.GroupID
	for id, g := range p.groups {
		if g.members[user] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// GroupName 实现Provider接口
func (p *StaticProvider) GroupName(ctx context.Context, group audit.GroupID) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.groups[group]
	if !ok {
		return "", false, nil
	}
	return g.name, true, nil
}

// 确保实现接口
var _ Provider = (*StaticProvider)(nil)
