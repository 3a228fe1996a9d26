package ingest

import (
	"fmt"
	"log/slog"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/log"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
)

// StalenessTracker 总结时效跟踪
// 按日文档在总结生成后继续增长时，旧总结不再反映当日全貌，必须作废；
// 判定信号只有一个：合并前后文档的消息行数
type StalenessTracker struct {
	docs      *docstore.Store
	summaries storage.SummaryRepository
	logger    *slog.Logger
}

// NewStalenessTracker 创建时效跟踪器
func NewStalenessTracker(docs *docstore.Store, summaries storage.SummaryRepository) *StalenessTracker {
	return &StalenessTracker{
		docs:      docs,
		summaries: summaries,
		logger:    log.NewModuleLogger("ingest", "staleness"),
	}
}

// InvalidateIfGrown 合并后检查并作废过期总结
// 仅当文档行数严格增长且该日期已有总结时作废（文件和 DB 行一起删），
// 行数不变或尚无总结时为 no-op。返回是否发生了作废
func (t *StalenessTracker) InvalidateIfGrown(roomID int64, roomName, date string, before, after int) (bool, error) {
	if after <= before {
		return false, nil
	}

	hasFile := t.docs.HasSummary(roomName, date)
	row, err := t.summaries.FindByDate(roomID, date, domainChat.SummaryTypeDaily)
	if err != nil {
		return false, fmt.Errorf("failed to check summary: %w", err)
	}
	if !hasFile && row == nil {
		return false, nil
	}

	if err := t.docs.DeleteSummary(roomName, date); err != nil {
		return false, err
	}
	if err := t.summaries.DeleteByDate(roomID, date, domainChat.SummaryTypeDaily); err != nil {
		return false, err
	}

	t.logger.Info("summary invalidated after document growth",
		"room", roomName, "date", date, "before", before, "after", after)
	return true, nil
}

// DatesNeedingSummary 需要（重新）生成总结的日期列表
// 定义为：有文档的日期减去已有有效总结的日期，完全由当前磁盘和
// DB 状态推导，不依赖任何历史记录
func (t *StalenessTracker) DatesNeedingSummary(roomID int64, roomName string) ([]string, error) {
	available, err := t.docs.AvailableDates(roomName)
	if err != nil {
		return nil, err
	}

	summarized, err := t.docs.SummarizedDates(roomName)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(summarized))
	for _, date := range summarized {
		done[date] = true
	}

	var needed []string
	for _, date := range available {
		if done[date] {
			continue
		}
		needed = append(needed, date)
	}
	return needed, nil
}
