package storage

import (
	"database/sql"
	"fmt"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// SyncLogRepository 同步日志仓储接口
// 只追加，不提供修改和删除
type SyncLogRepository interface {
	Add(log *domainChat.SyncLog) error
	ListByRoom(roomID int64, limit int) ([]*domainChat.SyncLog, error)
}

// syncLogRepository 同步日志 SQLite 仓储实现
type syncLogRepository struct {
	db *sql.DB
}

// NewSyncLogRepository 创建同步日志仓储实例
func NewSyncLogRepository(db *sql.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

// Add 追加一条同步日志
func (r *syncLogRepository) Add(log *domainChat.SyncLog) error {
	now := time.Now()
	res, err := r.db.Exec(
		`INSERT INTO sync_logs (room_id, status, message_count, new_message_count, error_message, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.RoomID, string(log.Status), log.MessageCount, log.NewCount,
		nullableString(log.Error), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add sync log: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		log.ID = id
	}
	log.SyncedAt = now
	return nil
}

// ListByRoom 查询房间最近的同步日志（按时间降序）
func (r *syncLogRepository) ListByRoom(roomID int64, limit int) ([]*domainChat.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT id, room_id, status, message_count, new_message_count, error_message, synced_at
		 FROM sync_logs WHERE room_id = ? ORDER BY synced_at DESC, id DESC LIMIT ?`,
		roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*domainChat.SyncLog
	for rows.Next() {
		var log domainChat.SyncLog
		var status string
		var errMsg sql.NullString
		var syncedAt int64

		err := rows.Scan(&log.ID, &log.RoomID, &status, &log.MessageCount, &log.NewCount, &errMsg, &syncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}

		log.Status = domainChat.SyncStatus(status)
		log.Error = errMsg.String
		log.SyncedAt = time.Unix(syncedAt, 0)
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
