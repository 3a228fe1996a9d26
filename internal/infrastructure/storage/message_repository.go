package storage

import (
	"database/sql"
	"fmt"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// insertBatchSize 单事务处理的最大行数
const insertBatchSize = 500

// RowOutcome 单行写入结果标记
// 批量插入不依赖异常做流程控制，每行显式返回结果
type RowOutcome int

const (
	// RowInserted 新行已插入
	RowInserted RowOutcome = iota
	// RowDuplicate 精确元组已存在，跳过
	RowDuplicate
	// RowRejected 插入失败（如与并发写入竞争），跳过但不中断批次
	RowRejected
)

// AddResult 批量插入的聚合结果
type AddResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// Total 本批次处理的总行数
func (r AddResult) Total() int {
	return r.Inserted + r.Duplicates + r.Rejected
}

// MessageRepository 消息仓储接口
type MessageRepository interface {
	AddMessages(roomID int64, batch []*domainChat.Message) (AddResult, error)
	FindByRoom(roomID int64, startDate, endDate string) ([]*domainChat.Message, error)
	CountByDate(roomID int64, date string) (int, error)
	UniqueSenders(roomID int64) ([]string, error)
}

// messageRepository 消息 SQLite 仓储实现
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// AddMessages 批量添加消息（按固定大小分批，每批一个事务）
// 每行先做精确元组查重，重复行跳过；单行插入失败只标记 rejected，
// 不影响同批其他行
func (r *messageRepository) AddMessages(roomID int64, batch []*domainChat.Message) (AddResult, error) {
	var result AddResult

	for start := 0; start < len(batch); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(batch) {
			end = len(batch)
		}

		batchResult, err := r.addBatch(roomID, batch[start:end])
		result.Inserted += batchResult.Inserted
		result.Duplicates += batchResult.Duplicates
		result.Rejected += batchResult.Rejected
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// addBatch 在单个事务内处理一个子批次
func (r *messageRepository) addBatch(roomID int64, batch []*domainChat.Message) (AddResult, error) {
	var result AddResult

	tx, err := r.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, msg := range batch {
		switch r.addRow(tx, roomID, msg, now) {
		case RowInserted:
			result.Inserted++
		case RowDuplicate:
			result.Duplicates++
		case RowRejected:
			result.Rejected++
		}
	}

	if err := tx.Commit(); err != nil {
		return AddResult{Rejected: len(batch)}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return result, nil
}

// addRow 插入单行，返回标记结果
// time/body 使用 IS 比较，空值也能正确查重
func (r *messageRepository) addRow(tx *sql.Tx, roomID int64, msg *domainChat.Message, now int64) RowOutcome {
	msgTime := nullableString(msg.Time)
	msgBody := nullableString(msg.Body)

	var existing int64
	err := tx.QueryRow(
		`SELECT id FROM messages
		 WHERE room_id = ? AND sender = ? AND date = ? AND time IS ? AND body IS ?`,
		roomID, msg.Sender, msg.Date, msgTime, msgBody,
	).Scan(&existing)

	if err == nil {
		return RowDuplicate
	}
	if err != sql.ErrNoRows {
		return RowRejected
	}

	_, err = tx.Exec(
		`INSERT INTO messages (room_id, sender, body, date, time, raw_line, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		roomID, msg.Sender, msgBody, msg.Date, msgTime, msg.RawLine, now,
	)
	if err != nil {
		// 与并发写入竞争等单行失败不阻断批次
		return RowRejected
	}
	return RowInserted
}

// FindByRoom 查询房间内的消息，支持可选日期范围过滤
func (r *messageRepository) FindByRoom(roomID int64, startDate, endDate string) ([]*domainChat.Message, error) {
	query := `SELECT id, room_id, sender, body, date, time, raw_line FROM messages WHERE room_id = ?`
	args := []any{roomID}

	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date, time`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domainChat.Message
	for rows.Next() {
		var msg domainChat.Message
		var body, msgTime, rawLine sql.NullString
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Sender, &body, &msg.Date, &msgTime, &rawLine); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Body = body.String
		msg.Time = msgTime.String
		msg.RawLine = rawLine.String
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// CountByDate 查询某日期的消息数
func (r *messageRepository) CountByDate(roomID int64, date string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(id) FROM messages WHERE room_id = ? AND date = ?`, roomID, date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// UniqueSenders 查询房间内的参与者列表
func (r *messageRepository) UniqueSenders(roomID int64) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT sender FROM messages WHERE room_id = ? ORDER BY sender`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, s)
	}
	return senders, rows.Err()
}

// nullableString 空字符串映射为 NULL
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
