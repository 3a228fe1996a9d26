package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/config"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/log"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
	"golang.org/x/sync/errgroup"
)

// defaultRoomName 文件名不含房间名时的兜底名称
const defaultRoomName = "카카오톡 대화"

// ImportReport 单个文件的导入结果
type ImportReport struct {
	JobID       string   `json:"job_id"`
	Room        string   `json:"room"`
	Path        string   `json:"path"`
	Dates       []string `json:"dates"`
	Total       int      `json:"total"`       // 解析出的消息行总数
	New         int      `json:"new"`         // 新插入关系库的消息数
	Duplicates  int      `json:"duplicates"`  // 已存在被跳过的消息数
	Invalidated []string `json:"invalidated"` // 因文档增长被作废总结的日期
	Err         string   `json:"error,omitempty"`
}

// DirectoryReport 目录批量导入的聚合结果
type DirectoryReport struct {
	JobID   string          `json:"job_id"`
	Files   int             `json:"files"`
	Failed  int             `json:"failed"`
	Reports []*ImportReport `json:"reports"`
}

// Importer 导入编排器
// 控制流固定：解码 → 解析分组 → 逐日期（文档合并 → 字段提取 → 入库 →
// 时效检查）→ 更新同步时间 → 追加审计日志。
// 文档库是事实源：入库失败时已合并的文档保留，可事后重建
type Importer struct {
	rooms     storage.RoomRepository
	messages  storage.MessageRepository
	syncLogs  storage.SyncLogRepository
	docs      *docstore.Store
	staleness *StalenessTracker
	cfg       *config.ImportConfig
	logger    *slog.Logger

	// roomLocks 按房间串行化"文档合并 + DB 写入"，不同房间互不阻塞
	roomLocks sync.Map
}

// NewImporter 创建导入编排器
func NewImporter(
	rooms storage.RoomRepository,
	messages storage.MessageRepository,
	syncLogs storage.SyncLogRepository,
	docs *docstore.Store,
	staleness *StalenessTracker,
	cfg *config.ImportConfig,
) *Importer {
	return &Importer{
		rooms:     rooms,
		messages:  messages,
		syncLogs:  syncLogs,
		docs:      docs,
		staleness: staleness,
		cfg:       cfg,
		logger:    log.NewModuleLogger("ingest", "importer"),
	}
}

// roomLock 取某房间的互斥锁
func (im *Importer) roomLock(roomName string) *sync.Mutex {
	lock, _ := im.roomLocks.LoadOrStore(roomName, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ResolveRoomName 从导出文件名推断房间名
// "우리가족_KakaoTalk_20240315.txt" → "우리가족"；
// 纯 "KakaoTalk_..." 前缀用兜底名；其余取文件名主干
func ResolveRoomName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if idx := strings.Index(stem, "_KakaoTalk"); idx > 0 {
		return stem[:idx]
	}
	if strings.HasPrefix(stem, "KakaoTalk") {
		return defaultRoomName
	}
	if stem == "" {
		return defaultRoomName
	}
	return stem
}

// EligibleExport 判断文件是否为可导入的导出文件
// 只接受 .txt/.csv，排除本系统自己生成的总结与链接文件
func EligibleExport(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".txt" && ext != ".csv" {
		return false
	}
	lower := strings.ToLower(name)
	for _, marker := range []string{"_summary", "_summaries", "_url"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// ImportFile 导入单个导出文件
// roomName 为空时从文件名推断。解析或 I/O 失败记 failed 日志后返回；
// 已合并进文档的内容不回滚
func (im *Importer) ImportFile(ctx context.Context, path, roomName string) *ImportReport {
	report := &ImportReport{
		JobID: uuid.NewString(),
		Path:  path,
	}

	if roomName == "" {
		roomName = ResolveRoomName(path)
	}
	report.Room = roomName

	ctx = log.WithRoomID(log.WithJobID(ctx, report.JobID), roomName)
	im.logger.InfoContext(ctx, "import started", "path", path, "room", roomName)

	data, err := os.ReadFile(path)
	if err != nil {
		report.Err = fmt.Sprintf("failed to read export: %v", err)
		im.logger.ErrorContext(ctx, "import failed", "error", err)
		return report
	}

	parsed, err := ParseBytes(data)
	if err != nil {
		report.Err = err.Error()
		im.logger.ErrorContext(ctx, "import failed", "error", err)
		return report
	}
	if len(parsed.LinesByDate) == 0 {
		report.Err = "no dated content found in export"
		im.logger.WarnContext(ctx, "import found no content", "path", path)
		return report
	}

	// 同一房间并发导入时串行执行，跨进程的重复由行级查重兜底
	lock := im.roomLock(roomName)
	lock.Lock()
	defer lock.Unlock()

	room, err := im.ensureRoom(roomName, path)
	if err != nil {
		report.Err = err.Error()
		im.logger.ErrorContext(ctx, "import failed", "error", err)
		return report
	}

	report.Dates = parsed.Dates()
	report.Total = parsed.TotalLines()

	var importErr error
	for _, date := range report.Dates {
		if err := im.importDate(room, roomName, date, parsed.LinesByDate[date], report); err != nil {
			importErr = err
			break
		}
	}

	if err := im.rooms.UpdateLastSync(room.ID, path); err != nil {
		im.logger.WarnContext(ctx, "failed to update last sync", "error", err)
	}

	im.recordSyncLog(room.ID, report, importErr)

	if importErr != nil {
		report.Err = importErr.Error()
		im.logger.ErrorContext(ctx, "import failed", "error", importErr)
	} else {
		im.logger.InfoContext(ctx, "import finished",
			"dates", len(report.Dates), "total", report.Total,
			"new", report.New, "duplicates", report.Duplicates,
			"invalidated", len(report.Invalidated))
	}
	return report
}

// importDate 处理单个日期：文档合并 → 提取 → 入库 → 时效检查
func (im *Importer) importDate(room *domainChat.Room, roomName, date string, lines []string, report *ImportReport) error {
	before, err := im.docs.MessageCount(roomName, date)
	if err != nil {
		return err
	}

	after, _, err := im.docs.SaveDaily(roomName, date, lines)
	if err != nil {
		return err
	}

	result, err := im.messages.AddMessages(room.ID, ExtractMessages(lines, date))
	if err != nil {
		return err
	}
	report.New += result.Inserted
	report.Duplicates += result.Duplicates

	invalidated, err := im.staleness.InvalidateIfGrown(room.ID, roomName, date, before, after)
	if err != nil {
		return err
	}
	if invalidated {
		report.Invalidated = append(report.Invalidated, date)
	}
	return nil
}

// ensureRoom 查询或创建房间
func (im *Importer) ensureRoom(roomName, sourcePath string) (*domainChat.Room, error) {
	room, err := im.rooms.FindByName(roomName)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}
	return im.rooms.Create(roomName, sourcePath)
}

// recordSyncLog 追加本次导入的审计日志
func (im *Importer) recordSyncLog(roomID int64, report *ImportReport, importErr error) {
	entry := &domainChat.SyncLog{
		RoomID:       roomID,
		Status:       domainChat.SyncStatusSuccess,
		MessageCount: report.Total,
		NewCount:     report.New,
	}
	if importErr != nil {
		entry.Error = importErr.Error()
		if report.New > 0 {
			entry.Status = domainChat.SyncStatusPartial
		} else {
			entry.Status = domainChat.SyncStatusFailed
		}
	}
	if err := im.syncLogs.Add(entry); err != nil {
		im.logger.Warn("failed to record sync log", "error", err)
	}
}

// ImportDirectory 批量导入目录下的全部合格导出文件
// 文件级并发（上限取配置），同一房间的写入仍被房间锁串行化；
// 单文件失败不影响其他文件
func (im *Importer) ImportDirectory(ctx context.Context, dir string) (*DirectoryReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read import directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !EligibleExport(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	report := &DirectoryReport{
		JobID:   uuid.NewString(),
		Files:   len(paths),
		Reports: make([]*ImportReport, len(paths)),
	}

	parallelism := im.cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Reports[i] = &ImportReport{Path: path, Err: err.Error()}
				return err
			}
			report.Reports[i] = im.ImportFile(ctx, path, "")
			return nil
		})
	}
	err = g.Wait()

	for _, r := range report.Reports {
		if r != nil && r.Err != "" {
			report.Failed++
		}
	}
	return report, err
}
