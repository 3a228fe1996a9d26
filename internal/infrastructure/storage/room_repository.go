package storage

import (
	"database/sql"
	"fmt"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// RoomRepository 聊天房间仓储接口
type RoomRepository interface {
	Create(name, sourcePath string) (*domainChat.Room, error)
	FindByID(id int64) (*domainChat.Room, error)
	FindByName(name string) (*domainChat.Room, error)
	FindAll() ([]*domainChat.Room, error)
	UpdateLastSync(id int64, sourcePath string) error
	Delete(id int64) error
	Stats(id int64) (*domainChat.RoomStats, error)
}

// roomRepository 聊天房间 SQLite 仓储实现
type roomRepository struct {
	db *sql.DB
}

// NewRoomRepository 创建聊天房间仓储实例
func NewRoomRepository(db *sql.DB) RoomRepository {
	return &roomRepository{db: db}
}

// Create 创建新房间
func (r *roomRepository) Create(name, sourcePath string) (*domainChat.Room, error) {
	now := time.Now()
	res, err := r.db.Exec(
		`INSERT INTO chat_rooms (name, source_path, created_at) VALUES (?, ?, ?)`,
		name, sourcePath, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get room id: %w", err)
	}

	return &domainChat.Room{
		ID:         id,
		Name:       name,
		SourcePath: sourcePath,
		CreatedAt:  now,
	}, nil
}

// FindByID 按 ID 查询房间
func (r *roomRepository) FindByID(id int64) (*domainChat.Room, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, source_path, last_sync_at, created_at FROM chat_rooms WHERE id = ?`, id))
}

// FindByName 按名称查询房间
func (r *roomRepository) FindByName(name string) (*domainChat.Room, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, source_path, last_sync_at, created_at FROM chat_rooms WHERE name = ?`, name))
}

// FindAll 查询所有房间（按消息数降序）
func (r *roomRepository) FindAll() ([]*domainChat.Room, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.name, c.source_path, c.last_sync_at, c.created_at
		FROM chat_rooms c
		LEFT JOIN (SELECT room_id, COUNT(id) AS msg_count FROM messages GROUP BY room_id) m
			ON c.id = m.room_id
		ORDER BY COALESCE(m.msg_count, 0) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*domainChat.Room
	for rows.Next() {
		room, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// UpdateLastSync 更新房间的同步时间和来源路径
func (r *roomRepository) UpdateLastSync(id int64, sourcePath string) error {
	_, err := r.db.Exec(
		`UPDATE chat_rooms SET last_sync_at = ?, source_path = COALESCE(NULLIF(?, ''), source_path) WHERE id = ?`,
		time.Now().Unix(), sourcePath, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	return nil
}

// Delete 删除房间及其所有关联数据（单事务级联）
// 磁盘上的文档不受影响，可用于事后重建
func (r *roomRepository) Delete(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cascades := []string{
		`DELETE FROM messages WHERE room_id = ?`,
		`DELETE FROM summaries WHERE room_id = ?`,
		`DELETE FROM sync_logs WHERE room_id = ?`,
		`DELETE FROM urls WHERE room_id = ?`,
		`DELETE FROM chat_rooms WHERE id = ?`,
	}
	for _, stmt := range cascades {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to delete room data: %w", err)
		}
	}

	return tx.Commit()
}

// Stats 查询房间统计信息
func (r *roomRepository) Stats(id int64) (*domainChat.RoomStats, error) {
	room, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	stats := &domainChat.RoomStats{
		RoomName: room.Name,
		LastSync: room.LastSyncAt,
	}

	err = r.db.QueryRow(`
		SELECT COUNT(id), COUNT(DISTINCT sender), COALESCE(MIN(date), ''), COALESCE(MAX(date), '')
		FROM messages WHERE room_id = ?`, id).Scan(
		&stats.TotalMessages, &stats.UniqueSenders, &stats.FirstDate, &stats.LastDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query room stats: %w", err)
	}

	return stats, nil
}

// rowScanner 兼容 sql.Row 和 sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOne 扫描单行查询结果，未找到返回 nil
func (r *roomRepository) scanOne(row *sql.Row) (*domainChat.Room, error) {
	room, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil // 未找到，返回 nil 而不是错误
	}
	return room, err
}

// scanRow 扫描一行房间数据
func (r *roomRepository) scanRow(row rowScanner) (*domainChat.Room, error) {
	var room domainChat.Room
	var sourcePath sql.NullString
	var lastSync sql.NullInt64
	var createdAt int64

	if err := row.Scan(&room.ID, &room.Name, &sourcePath, &lastSync, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}

	room.SourcePath = sourcePath.String
	if lastSync.Valid {
		room.LastSyncAt = time.Unix(lastSync.Int64, 0)
	}
	room.CreatedAt = time.Unix(createdAt, 0)
	return &room, nil
}
