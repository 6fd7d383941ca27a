// Package sqlitedb 打开 modernc.org/sqlite 数据库并应用统一的连接设置。
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryDSN 是纯内存数据库，测试使用
const MemoryDSN = ":memory:"

// Open 打开数据库并执行 schema。
// SQLite 只允许一个写者，连接池固定为 1；文件库开启 WAL。
func Open(dsn string, schema ...string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if dsn != MemoryDSN {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %s: %w", dsn, firstLine(stmt), err)
		}
	}
	return db, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
