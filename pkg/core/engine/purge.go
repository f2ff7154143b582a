package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lanheader/Archery/pkg/storage"
)

// LogPurger 审批日志定时清理器（对外导出）
// 审批日志只追加，历史数据按保留期批量清理
type LogPurger struct {
	cron      *cron.Cron
	repo      storage.AuditRepository
	retention time.Duration
}

// NewLogPurger 创建定时清理器
// spec: cron表达式（如 "0 3 * * *"）
// retention: 日志保留时长
func NewLogPurger(repo storage.AuditRepository, spec string, retention time.Duration) (*LogPurger, error) {
	p := &LogPurger{
		cron:      cron.New(),
		repo:      repo,
		retention: retention,
	}
	if _, err := p.cron.AddFunc(spec, p.run); err != nil {
		return nil, fmt.Errorf("注册日志清理任务失败: %w", err)
	}
	return p, nil
}

// Start 启动定时清理
func (p *LogPurger) Start() {
	p.cron.Start()
	log.Printf("审批日志清理任务已启动, 保留时长: %s", p.retention)
}

// Stop 停止定时清理，等待进行中的任务结束
func (p *LogPurger) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// PurgeOnce 立即执行一次清理，返回删除行数
func (p *LogPurger) PurgeOnce(ctx context.Context) (int64, error) {
	return p.repo.PurgeLogs(ctx, time.Now().Add(-p.retention))
}

func (p *LogPurger) run() {
	n, err := p.PurgeOnce(context.Background())
	if err != nil {
		log.Printf("审批日志清理失败: %v", err)
		return
	}
	log.Printf("审批日志清理完成, 删除 %d 行", n)
}
