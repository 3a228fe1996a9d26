package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kakaosum/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// OpenDB 打开指定路径的数据库连接并初始化表结构
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

	// WAL 模式及性能优化
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=30000;`,
		`PRAGMA temp_store=MEMORY;`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ProvideDB 根据配置提供数据库连接（wire 使用）
func ProvideDB(cfg *config.Config) (*sql.DB, error) {
	return OpenDB(cfg.DatabasePath())
}

// initSchema 初始化表结构
func initSchema(db *sql.DB) error {
	createTableStmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			source_path TEXT,
			last_sync_at INTEGER,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES chat_rooms(id),
			sender TEXT NOT NULL,
			body TEXT,
			date TEXT NOT NULL,
			time TEXT,
			raw_line TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE(room_id, sender, date, time, body)
		);`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES chat_rooms(id),
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT,
			provider TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sync_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES chat_rooms(id),
			status TEXT NOT NULL,
			message_count INTEGER DEFAULT 0,
			new_message_count INTEGER DEFAULT 0,
			error_message TEXT,
			synced_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS urls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES chat_rooms(id),
			url TEXT NOT NULL,
			descriptions TEXT,
			source_date TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE(room_id, url)
		);`,
	}
	for _, st := range createTableStmts {
		if _, err := db.Exec(st); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	createIndexStmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_room_date ON messages(room_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_room_date ON summaries(room_id, date, type);`,
		`CREATE INDEX IF NOT EXISTS idx_sync_logs_room ON sync_logs(room_id, synced_at);`,
		`CREATE INDEX IF NOT EXISTS idx_urls_room ON urls(room_id);`,
	}
	for _, st := range createIndexStmts {
		if _, err := db.Exec(st); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
