package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/llm"
	"github.com/kakaosum/backend/internal/infrastructure/log"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
)

// completer LLM 补全入口，测试时用假实现替换
type completer interface {
	Complete(ctx context.Context, system, prompt string) *llm.Result
	ProviderName() string
}

// Service 总结应用服务
// 单日总结的完整链路：读文档 → 组提示词 → 调 LLM → 校验 →
// 落文件和 DB（替换语义）→ 重新归并链接视图
type Service struct {
	client    completer
	docs      *docstore.Store
	rooms     storage.RoomRepository
	summaries storage.SummaryRepository
	urls      storage.URLRepository
	logger    *slog.Logger
}

// NewService 创建总结服务
func NewService(
	client *llm.Client,
	docs *docstore.Store,
	rooms storage.RoomRepository,
	summaries storage.SummaryRepository,
	urls storage.URLRepository,
) *Service {
	return &Service{
		client:    client,
		docs:      docs,
		rooms:     rooms,
		summaries: summaries,
		urls:      urls,
		logger:    log.NewModuleLogger("summary", "service"),
	}
}

// newServiceWith 注入任意补全实现（测试用）
func newServiceWith(
	client completer,
	docs *docstore.Store,
	rooms storage.RoomRepository,
	summaries storage.SummaryRepository,
	urls storage.URLRepository,
) *Service {
	return &Service{
		client:    client,
		docs:      docs,
		rooms:     rooms,
		summaries: summaries,
		urls:      urls,
		logger:    log.NewModuleLogger("summary", "service"),
	}
}

// SummarizeDate 为某房间某日期生成总结
// LLM 失败或校验不通过时不保存任何工件；成功后旧总结被整体替换，
// 链接视图随之重新归并
func (s *Service) SummarizeDate(ctx context.Context, room *domainChat.Room, date string) (*domainChat.Summary, error) {
	lines, err := s.docs.LoadDaily(room.Name, date)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no document for %s on %s", room.Name, date)
	}

	body := strings.Join(lines, "\n")
	prompt := BuildPrompt(body)
	s.logger.Info("summarizing date",
		"room", room.Name, "date", date,
		"lines", len(lines), "prompt_tokens_est", llm.EstimateTokens(prompt))

	result := s.client.Complete(ctx, SystemPrompt(), prompt)
	if !result.Success() {
		return nil, fmt.Errorf("summarization failed for %s: %w", date, result.Err)
	}

	content := StripThinkTags(result.Content)
	if err := ValidateSummary(content); err != nil {
		return nil, fmt.Errorf("summary rejected for %s: %w", date, err)
	}

	if err := s.docs.SaveSummary(room.Name, date, content); err != nil {
		return nil, err
	}

	summary := &domainChat.Summary{
		RoomID:   room.ID,
		Date:     date,
		Type:     domainChat.SummaryTypeDaily,
		Content:  content,
		Provider: s.client.ProviderName(),
	}
	if err := s.summaries.Save(summary); err != nil {
		return nil, err
	}

	if err := s.Consolidate(room, time.Now()); err != nil {
		// 链接归并失败不作废已生成的总结
		s.logger.Warn("url consolidation failed", "room", room.Name, "error", err)
	}

	s.logger.Info("summary saved",
		"room", room.Name, "date", date,
		"provider", summary.Provider, "tokens", result.Usage.TotalTokens)
	return summary, nil
}

// RangeReport 多日期总结任务的结果
type RangeReport struct {
	Completed []string          `json:"completed"`
	Failed    map[string]string `json:"failed,omitempty"`
	Canceled  bool              `json:"canceled,omitempty"`
}

// SummarizeRange 依次为多个日期生成总结
// 仅在日期之间检查取消，已完成日期的工件在取消后保留；
// 单个日期失败记录后继续处理后面的日期
func (s *Service) SummarizeRange(ctx context.Context, room *domainChat.Room, dates []string) *RangeReport {
	report := &RangeReport{Failed: make(map[string]string)}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			s.logger.Info("range summarization canceled",
				"room", room.Name, "completed", len(report.Completed))
			break
		}

		if _, err := s.SummarizeDate(ctx, room, date); err != nil {
			report.Failed[date] = err.Error()
			continue
		}
		report.Completed = append(report.Completed, date)
	}

	if len(report.Failed) == 0 {
		report.Failed = nil
	}
	return report
}

// Consolidate 重新归并某房间的链接视图
// 扫描全部总结文档提取链接，按三个时间窗口（recent=3 天、weekly=7 天、
// all）产出三份文件，并把全量结果 upsert 进 DB
func (s *Service) Consolidate(room *domainChat.Room, now time.Time) error {
	dates, err := s.docs.SummarizedDates(room.Name)
	if err != nil {
		return err
	}

	windows := make(map[docstore.URLWindow][]*domainChat.URLEntry, len(docstore.AllURLWindows))
	merged := make(map[docstore.URLWindow]map[string]*domainChat.URLEntry, len(docstore.AllURLWindows))
	for _, w := range docstore.AllURLWindows {
		merged[w] = make(map[string]*domainChat.URLEntry)
	}

	for _, date := range dates {
		content, err := s.docs.LoadSummary(room.Name, date)
		if err != nil {
			return err
		}

		for _, extracted := range ExtractURLs(content) {
			for _, w := range docstore.AllURLWindows {
				if !dateInWindow(date, w, now) {
					continue
				}
				entry, ok := merged[w][extracted.URL]
				if !ok {
					entry = &domainChat.URLEntry{
						RoomID:     room.ID,
						URL:        extracted.URL,
						SourceDate: date,
					}
					merged[w][extracted.URL] = entry
					windows[w] = append(windows[w], entry)
				}
				for _, desc := range extracted.Descriptions {
					if !containsString(entry.Descriptions, desc) {
						entry.Descriptions = append(entry.Descriptions, desc)
					}
				}
			}
		}
	}

	for _, w := range docstore.AllURLWindows {
		if err := s.docs.SaveURLFile(room.Name, w, windows[w]); err != nil {
			return err
		}
	}

	for _, entry := range windows[docstore.URLWindowAll] {
		if err := s.urls.Upsert(room.ID, entry); err != nil {
			return err
		}
	}

	s.logger.Debug("urls consolidated",
		"room", room.Name,
		"recent", len(windows[docstore.URLWindowRecent]),
		"weekly", len(windows[docstore.URLWindowWeekly]),
		"all", len(windows[docstore.URLWindowAll]))
	return nil
}

// dateInWindow 总结日期是否落在窗口内
func dateInWindow(date string, window docstore.URLWindow, now time.Time) bool {
	days := window.Days()
	if days == 0 {
		return true
	}

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	// 按 now 所在时区的日历日截断，避免 UTC 对齐造成窗口边界偏移
	edge := now.AddDate(0, 0, -days)
	cutoff := time.Date(edge.Year(), edge.Month(), edge.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(cutoff)
}
