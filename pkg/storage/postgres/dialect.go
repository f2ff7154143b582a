package postgres

import (
	"fmt"
	"strings"

	"github.com/lanheader/Archery/pkg/storage"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// UpsertSQL 返回PostgreSQL的UPSERT语句（ON CONFLICT语法）
func (d *PostgresDialect) UpsertSQL(tableName string, columns []string, conflictColumns []string, updateColumns []string) string {
	named := make([]string, len(columns))
	for i, col := range columns {
		named[i] = ":" + col
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(named, ", "),
		strings.Join(conflictColumns, ", "),
		strings.Join(updates, ", "),
	)
}

// ConfigureDB PostgreSQL无需额外配置
func (d *PostgresDialect) ConfigureDB() []string {
	return nil
}

// TimestampType 返回PostgreSQL时间戳类型
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMP"
}

// TextType 返回PostgreSQL文本类型
func (d *PostgresDialect) TextType() string {
	return "TEXT"
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
