// Package storage 提供数据库工厂：按配置选择sqlite/mysql/postgres并组装Repository集合
package storage

import (
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	pkgstorage "github.com/lanheader/Archery/pkg/storage"
	"github.com/lanheader/Archery/pkg/storage/mysql"
	"github.com/lanheader/Archery/pkg/storage/postgres"
	"github.com/lanheader/Archery/pkg/storage/sqlite"
)

// Repositories 存储Repository集合（内部使用）
type Repositories struct {
	DB            *sqlx.DB
	Dialect       pkgstorage.Dialect
	Audit         pkgstorage.AuditRepository
	Setting       pkgstorage.SettingRepository
	ResourceGroup pkgstorage.ResourceGroupRepository
	Config        pkgstorage.ConfigRepository
	Ticket        pkgstorage.TicketRepository
}

// NewRepositories 创建Repository集合（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
func NewRepositories(dbType, dsn string) (*Repositories, error) {
	dialect, err := newDialect(dbType)
	if err != nil {
		return nil, err
	}

	if dialect.Name() == "mysql" && !strings.Contains(dsn, "parseTime=true") {
		// MySQL需要parseTime=true才能扫描DATETIME到time.Time
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			// 配置语句失败不阻断启动
			continue
		}
	}

	if err := pkgstorage.InitSchema(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	return &Repositories{
		DB:            db,
		Dialect:       dialect,
		Audit:         pkgstorage.NewAuditRepo(db, dialect),
		Setting:       pkgstorage.NewSettingRepo(db, dialect),
		ResourceGroup: pkgstorage.NewResourceGroupRepo(db),
		Config:        pkgstorage.NewConfigRepo(db, dialect),
		Ticket:        pkgstorage.NewTicketRepo(db),
	}, nil
}

// Close 关闭底层数据库连接
func (r *Repositories) Close() error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

func newDialect(dbType string) (pkgstorage.Dialect, error) {
	switch dbType {
	case "sqlite", "sqlite3":
		return sqlite.NewSQLiteDialect(), nil
	case "mysql":
		return mysql.NewMySQLDialect(), nil
	case "postgres", "postgresql":
		return postgres.NewPostgresDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
