// Package config 提供YAML启动配置与数据库驻留的运行时系统配置
package config

import (
	"time"
)

// Config 审批服务启动配置（对外导出）
type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Mode         string        `yaml:"mode"` // debug/release
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Database struct {
		Type            string        `yaml:"type"` // sqlite/mysql/postgres
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Audit struct {
		// LogRetentionDays 审批日志保留天数，0表示不清理
		LogRetentionDays int `yaml:"log_retention_days"`
		// PurgeCron 日志清理的cron表达式
		PurgeCron string `yaml:"purge_cron"`
		// EventDebug 审批事件总线调试日志
		EventDebug bool `yaml:"event_debug"`
	} `yaml:"audit"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.Mode = "release"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = "./archery_audit.db"
	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = time.Hour
	cfg.Audit.LogRetentionDays = 0
	cfg.Audit.PurgeCron = "0 3 * * *"
	return cfg
}
