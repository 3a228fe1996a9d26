package storage

import (
	"database/sql"
	"fmt"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// SummaryRepository 总结仓储接口
type SummaryRepository interface {
	Save(summary *domainChat.Summary) error
	FindByDate(roomID int64, date string, summaryType domainChat.SummaryType) (*domainChat.Summary, error)
	FindByRoom(roomID int64) ([]*domainChat.Summary, error)
	SummarizedDates(roomID int64, summaryType domainChat.SummaryType) ([]string, error)
	DeleteByDate(roomID int64, date string, summaryType domainChat.SummaryType) error
}

// summaryRepository 总结 SQLite 仓储实现
type summaryRepository struct {
	db *sql.DB
}

// NewSummaryRepository 创建总结仓储实例
func NewSummaryRepository(db *sql.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

// Save 保存总结（替换语义）
// 同一 (room_id, date, type) 的旧总结在同一事务内先删除再插入，
// 任何时刻该组合最多存在一条记录
func (r *summaryRepository) Save(summary *domainChat.Summary) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`DELETE FROM summaries WHERE room_id = ? AND date = ? AND type = ?`,
		summary.RoomID, summary.Date, string(summary.Type),
	)
	if err != nil {
		return fmt.Errorf("failed to delete old summary: %w", err)
	}

	now := time.Now()
	res, err := tx.Exec(
		`INSERT INTO summaries (room_id, date, type, content, provider, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RoomID, summary.Date, string(summary.Type), summary.Content, summary.Provider, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit summary: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		summary.ID = id
	}
	summary.CreatedAt = now
	return nil
}

// FindByDate 查询某房间某日期某类型的总结，未找到返回 nil
func (r *summaryRepository) FindByDate(roomID int64, date string, summaryType domainChat.SummaryType) (*domainChat.Summary, error) {
	row := r.db.QueryRow(
		`SELECT id, room_id, date, type, content, provider, created_at
		 FROM summaries WHERE room_id = ? AND date = ? AND type = ?`,
		roomID, date, string(summaryType),
	)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return summary, err
}

// FindByRoom 查询房间的所有总结（按日期升序）
func (r *summaryRepository) FindByRoom(roomID int64) ([]*domainChat.Summary, error) {
	rows, err := r.db.Query(
		`SELECT id, room_id, date, type, content, provider, created_at
		 FROM summaries WHERE room_id = ? ORDER BY date, type`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domainChat.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// SummarizedDates 查询已有指定类型总结的日期列表（升序）
func (r *summaryRepository) SummarizedDates(roomID int64, summaryType domainChat.SummaryType) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT date FROM summaries WHERE room_id = ? AND type = ? ORDER BY date`,
		roomID, string(summaryType))
	if err != nil {
		return nil, fmt.Errorf("failed to query summarized dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DeleteByDate 删除某日期的总结（总结失效时调用）
func (r *summaryRepository) DeleteByDate(roomID int64, date string, summaryType domainChat.SummaryType) error {
	_, err := r.db.Exec(
		`DELETE FROM summaries WHERE room_id = ? AND date = ? AND type = ?`,
		roomID, date, string(summaryType),
	)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

// scanSummary 扫描一行总结数据
func scanSummary(row rowScanner) (*domainChat.Summary, error) {
	var summary domainChat.Summary
	var summaryType string
	var content, provider sql.NullString
	var createdAt int64

	err := row.Scan(&summary.ID, &summary.RoomID, &summary.Date, &summaryType, &content, &provider, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan summary: %w", err)
	}

	summary.Type = domainChat.SummaryType(summaryType)
	summary.Content = content.String
	summary.Provider = provider.String
	summary.CreatedAt = time.Unix(createdAt, 0)
	return &summary, nil
}
