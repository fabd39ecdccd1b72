package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDB 打开数据库连接并初始化表结构
// 默认路径: ~/.chatbot-rag/chatbot-rag.db（见 config.VectorConfig.SQLitePath）
func OpenDB(dbPath string) (*sql.DB, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 启用 WAL 模式，允许读写并发
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema 初始化表结构
func InitSchema(db *sql.DB) error {
	// page 不允许为空，-1 表示无页码
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS document_chunks (
		collection TEXT NOT NULL,
		chunk_id TEXT NOT NULL,
		source TEXT NOT NULL,
		page INTEGER NOT NULL DEFAULT -1,
		chunk_index INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimension INTEGER NOT NULL,
		PRIMARY KEY (collection, chunk_id)
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create document_chunks table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_document_chunks_source ON document_chunks(collection, source);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}
