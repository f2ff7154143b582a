package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/lanheader/Archery/pkg/storage"
)

// 审批引擎消费的系统配置键
const (
	// KeyAutoReview 自动审核总开关
	KeyAutoReview = "auto_review"
	// KeyBanSelfAudit 禁止审核自己提交的工单
	KeyBanSelfAudit = "ban_self_audit"
)

// SysConfig 运行时系统配置（对外导出）
// 配置项驻留数据库，内存缓存全量配置，Set/Purge同步刷新缓存
type SysConfig struct {
	mu    sync.RWMutex
	cache map[string]string
	repo  storage.ConfigRepository // nil时为纯内存模式（测试用）
}

// NewSysConfig 创建SysConfig并加载全量配置
func NewSysConfig(ctx context.Context, repo storage.ConfigRepository) (*SysConfig, error) {
	c := &SysConfig{
		cache: make(map[string]string),
		repo:  repo,
	}
	if repo != nil {
		all, err := repo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("加载系统配置失败: %w", err)
		}
		c.cache = all
	}
	return c, nil
}

// NewMemorySysConfig 创建纯内存SysConfig（测试用）
func NewMemorySysConfig() *SysConfig {
	return &SysConfig{cache: make(map[string]string)}
}

// Get 取配置值
func (c *SysConfig) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cache[key]
	return v, ok
}

// GetBool 取布尔配置，"true"/"1"为真，缺失为假
func (c *SysConfig) GetBool(key string) bool {
	v, ok := c.Get(key)
	if !ok {
		return false
	}
	return v == "true" || v == "1"
}

// Set 写入配置并刷新缓存
func (c *SysConfig) Set(ctx context.Context, key, value string) error {
	if c.repo != nil {
		if err := c.repo.Set(ctx, key, value); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = value
	return nil
}

// Purge 清空全部配置
func (c *SysConfig) Purge(ctx context.Context) error {
	if c.repo != nil {
		if err := c.repo.Purge(ctx); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]string)
	return nil
}
