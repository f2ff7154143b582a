package cmd

import (
	"context"
	"os"

	"github.com/lanheader/Archery/internal/storage"
	"github.com/lanheader/Archery/pkg/cli/output"
	"github.com/lanheader/Archery/pkg/config"
	"github.com/lanheader/Archery/pkg/core/audit"
	"github.com/lanheader/Archery/pkg/core/auth"
	"github.com/lanheader/Archery/pkg/core/engine"
	"github.com/lanheader/Archery/pkg/core/events"
	"github.com/lanheader/Archery/pkg/core/workflow"
	pkgstorage "github.com/lanheader/Archery/pkg/storage"
)

// app 命令运行时的依赖集合
type app struct {
	cfg       *config.Config
	repos     *storage.Repositories
	engine    *engine.Engine
	publisher *events.Publisher
}

// loadConfig 加载启动配置，未指定--config时尝试默认路径
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		defaultPaths := []string{
			"./configs/audit.yaml",
			"./config/audit.yaml",
			"./audit.yaml",
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	output.Info("使用配置文件: %s", path)
	return config.Load(path)
}

// buildApp 按配置组装存储、事件总线与审批引擎
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	repos, err := storage.NewRepositories(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	repos.DB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	repos.DB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	repos.DB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	sysConfig, err := config.NewSysConfig(ctx, repos.Config)
	if err != nil {
		repos.Close()
		return nil, err
	}

	// 三种工单类型共用内置的business_ticket表，
	// 生产部署可替换为各自业务表的Resolver
	registry := workflow.NewRegistry()
	registry.Register(audit.TypeSQLReview,
		pkgstorage.NewTicketResolver(repos.Ticket, audit.TypeSQLReview, nil), workflow.PermSQLReview)
	registry.Register(audit.TypeQuery,
		pkgstorage.NewTicketResolver(repos.Ticket, audit.TypeQuery, nil), workflow.PermQueryReview)
	registry.Register(audit.TypeArchive,
		pkgstorage.NewTicketResolver(repos.Ticket, audit.TypeArchive, nil), workflow.PermArchiveReview)

	publisher := events.NewPublisher(cfg.Audit.EventDebug)

	// 用户/权限体系由上游系统托管，独立部署时使用进程内Provider
	eng, err := engine.NewEngine(engine.Deps{
		Audits:         repos.Audit,
		Settings:       repos.Setting,
		ResourceGroups: repos.ResourceGroup,
		Registry:       registry,
		Auth:           auth.NewStaticProvider(),
		SysConfig:      sysConfig,
		Publisher:      publisher,
	})
	if err != nil {
		publisher.Close()
		repos.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		repos:     repos,
		engine:    eng,
		publisher: publisher,
	}, nil
}

// Close 释放底层资源
func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.repos != nil {
		a.repos.Close()
	}
}
