package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// descriptionSeparator 描述拼接用的分隔符，与文档中的展示格式一致
const descriptionSeparator = " / "

// URLRepository 链接仓储接口
// 以 (room_id, url) 为键做归并：描述取并集，首次出现日期保留最早值
type URLRepository interface {
	Upsert(roomID int64, entry *domainChat.URLEntry) error
	FindByRoom(roomID int64) ([]*domainChat.URLEntry, error)
	ClearByRoom(roomID int64) error
}

// urlRepository 链接 SQLite 仓储实现
type urlRepository struct {
	db *sql.DB
}

// NewURLRepository 创建链接仓储实例
func NewURLRepository(db *sql.DB) URLRepository {
	return &urlRepository{db: db}
}

// Upsert 插入或归并链接
// 已存在时：描述做去重并集（保持首次出现顺序），source_date 取更早的非空值
func (r *urlRepository) Upsert(roomID int64, entry *domainChat.URLEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID int64
	var existingDescs, existingDate sql.NullString
	err = tx.QueryRow(
		`SELECT id, descriptions, source_date FROM urls WHERE room_id = ? AND url = ?`,
		roomID, entry.URL,
	).Scan(&existingID, &existingDescs, &existingDate)

	now := time.Now().Unix()
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			`INSERT INTO urls (room_id, url, descriptions, source_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			roomID, entry.URL, joinDescriptions(entry.Descriptions),
			nullableString(entry.SourceDate), now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert url: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query url: %w", err)
	default:
		merged := mergeDescriptions(splitDescriptions(existingDescs.String), entry.Descriptions)
		_, err = tx.Exec(
			`UPDATE urls SET descriptions = ?, source_date = ?, updated_at = ? WHERE id = ?`,
			joinDescriptions(merged),
			nullableString(earlierDate(existingDate.String, entry.SourceDate)),
			now, existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update url: %w", err)
		}
	}

	return tx.Commit()
}

// FindByRoom 查询房间的所有链接（按首次出现日期升序，再按 URL 排序）
func (r *urlRepository) FindByRoom(roomID int64) ([]*domainChat.URLEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, room_id, url, descriptions, source_date, created_at, updated_at
		 FROM urls WHERE room_id = ? ORDER BY COALESCE(source_date, ''), url`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	var entries []*domainChat.URLEntry
	for rows.Next() {
		var entry domainChat.URLEntry
		var descs, sourceDate sql.NullString
		var createdAt, updatedAt int64

		err := rows.Scan(&entry.ID, &entry.RoomID, &entry.URL, &descs, &sourceDate, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}

		entry.Descriptions = splitDescriptions(descs.String)
		entry.SourceDate = sourceDate.String
		entry.CreatedAt = time.Unix(createdAt, 0)
		entry.UpdatedAt = time.Unix(updatedAt, 0)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ClearByRoom 清空房间的全部链接记录（重新归并前调用）
func (r *urlRepository) ClearByRoom(roomID int64) error {
	_, err := r.db.Exec(`DELETE FROM urls WHERE room_id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("failed to clear urls: %w", err)
	}
	return nil
}

// mergeDescriptions 去重并集，保持首次出现顺序，丢弃空白项
func mergeDescriptions(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	var merged []string
	for _, d := range append(append([]string{}, existing...), incoming...) {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}
	return merged
}

// joinDescriptions 描述列表拼接为存储格式
func joinDescriptions(descs []string) string {
	return strings.Join(mergeDescriptions(descs, nil), descriptionSeparator)
}

// splitDescriptions 存储格式还原为描述列表
func splitDescriptions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return mergeDescriptions(strings.Split(s, descriptionSeparator), nil)
}

// earlierDate 取两个日期中更早的非空值
func earlierDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b < a {
		return b
	}
	return a
}
