package chat

import "time"

// Room 聊天房间
// 每个房间对应一份（或多份增量的）카카오톡导出文件
type Room struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`        // 房间名，唯一
	SourcePath string    `json:"source_path"` // 最近一次导入的文件路径
	LastSyncAt time.Time `json:"last_sync_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message 单条聊天消息
// 唯一性约束：(room_id, sender, date, time, body)，重复导入同一行为 no-op
type Message struct {
	ID      int64  `json:"id"`
	RoomID  int64  `json:"room_id"`
	Sender  string `json:"sender"`
	Body    string `json:"body,omitempty"` // 可为空（部分格式只有发送者）
	Date    string `json:"date"`           // YYYY-MM-DD
	Time    string `json:"time,omitempty"` // HH:MM，部分格式缺失
	RawLine string `json:"raw_line"`       // 原始行文本，用于审计和重建
}

// SummaryType 总结类型
type SummaryType string

const (
	SummaryTypeDaily  SummaryType = "daily"
	SummaryType2Days  SummaryType = "2days"
	SummaryTypeWeekly SummaryType = "weekly"
)

// Summary 某房间某日期的 LLM 总结
// 仅当对应 DailyDocument 自生成以来没有增长时有效
// (room_id, date, type) 最多一条，重新生成为替换而非追加
type Summary struct {
	ID        int64       `json:"id"`
	RoomID    int64       `json:"room_id"`
	Date      string      `json:"date"`
	Type      SummaryType `json:"type"`
	Content   string      `json:"content"`
	Provider  string      `json:"provider"` // 生成该总结的 LLM 提供商
	CreatedAt time.Time   `json:"created_at"`
}

// SyncStatus 同步状态
type SyncStatus string

const (
	SyncStatusSuccess  SyncStatus = "success"
	SyncStatusFailed   SyncStatus = "failed"
	SyncStatusPartial  SyncStatus = "partial"
	SyncStatusRecovery SyncStatus = "recovery"
)

// SyncLog 导入审计日志，只追加，不修改不删除
type SyncLog struct {
	ID           int64      `json:"id"`
	RoomID       int64      `json:"room_id"`
	Status       SyncStatus `json:"status"`
	MessageCount int        `json:"message_count"`     // 本次解析出的消息总数
	NewCount     int        `json:"new_message_count"` // 实际新插入的消息数
	Error        string     `json:"error,omitempty"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// URLEntry 房间内共享链接的归并记录
// 以规范化 URL 为键，描述只做并集不做删减
type URLEntry struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"room_id"`
	URL          string    `json:"url"`
	Descriptions []string  `json:"descriptions"`
	SourceDate   string    `json:"source_date,omitempty"` // URL 首次出现的总结日期
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoomStats 房间统计信息
type RoomStats struct {
	RoomName      string    `json:"room_name"`
	TotalMessages int       `json:"total_messages"`
	UniqueSenders int       `json:"unique_senders"`
	FirstDate     string    `json:"first_date,omitempty"`
	LastDate      string    `json:"last_date,omitempty"`
	LastSync      time.Time `json:"last_sync"`
}
