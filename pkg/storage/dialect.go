package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异，占位符转换由sqlx.Rebind处理
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回database/sql驱动名
	DriverName() string

	// UpsertSQL 返回插入或更新的SQL语句（命名参数形式）
	// tableName: 表名
	// columns: 列名列表
	// conflictColumns: 冲突判断列（唯一约束列）
	// updateColumns: 冲突时需要更新的列
	UpsertSQL(tableName string, columns []string, conflictColumns []string, updateColumns []string) string

	// ConfigureDB 返回建连后需要执行的配置SQL（如SQLite的PRAGMA）
	ConfigureDB() []string

	// TimestampType 返回时间戳类型
	// SQLite/MySQL: DATETIME
	// PostgreSQL: TIMESTAMP
	TimestampType() string

	// TextType 返回文本类型
	TextType() string
}
