package mysql

import (
	"fmt"
	"strings"

	"github.com/lanheader/Archery/pkg/storage"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// UpsertSQL 返回MySQL的UPSERT语句（ON DUPLICATE KEY UPDATE语法）
// conflictColumns由表上的唯一约束隐式决定，MySQL语法中不出现
func (d *MySQLDialect) UpsertSQL(tableName string, columns []string, conflictColumns []string, updateColumns []string) string {
	named := make([]string, len(columns))
	for i, col := range columns {
		named[i] = ":" + col
	}
	updates := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updates[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(named, ", "),
		strings.Join(updates, ", "),
	)
}

// ConfigureDB 返回MySQL配置SQL
func (d *MySQLDialect) ConfigureDB() []string {
	return []string{
		"SET SESSION sql_mode='STRICT_TRANS_TABLES,NO_ZERO_DATE';",
	}
}

// TimestampType 返回MySQL时间戳类型
func (d *MySQLDialect) TimestampType() string {
	return "DATETIME"
}

// TextType 返回MySQL文本类型
func (d *MySQLDialect) TextType() string {
	return "TEXT"
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
