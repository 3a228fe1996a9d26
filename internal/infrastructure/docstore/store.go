package docstore

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kakaosum/backend/internal/infrastructure/config"
	logger "github.com/kakaosum/backend/internal/infrastructure/log"
)

// 文档文件名后缀约定
const (
	fullSuffix    = "_full.md"
	summarySuffix = "_summary.md"
	footerMarker  = "_Generated"
)

// dateFileRe 匹配按日文档文件名中的日期部分
var dateFileRe = regexp.MustCompile(`_(\d{8})_full\.md$`)

// Store 按日文档存储
// 每个房间一个目录，每个日期一份 full 文档和（可选）一份 summary 文档，
// 文档为 Markdown 纯文本，可直接阅读，也是数据库损坏时的重建来源
type Store struct {
	baseDir string
	logger  *slog.Logger
}

// NewStore 创建文档存储实例
func NewStore(cfg *config.Config) (*Store, error) {
	baseDir := cfg.StorageBaseDir()
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logger.NewModuleLogger("infrastructure", "docstore"),
	}, nil
}

// NewStoreAt 在指定目录创建文档存储（测试用）
func NewStoreAt(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logger.NewModuleLogger("infrastructure", "docstore"),
	}, nil
}

// BaseDir 文档根目录
func (s *Store) BaseDir() string {
	return s.baseDir
}

// 三类文档各占一棵子树：original 为原始按日文档，summary 为总结，url 为链接列表
func (s *Store) originalDir(roomName string) string {
	return filepath.Join(s.baseDir, "original", SanitizeName(roomName))
}

func (s *Store) summaryDir(roomName string) string {
	return filepath.Join(s.baseDir, "summary", SanitizeName(roomName))
}

func (s *Store) urlDir(roomName string) string {
	return filepath.Join(s.baseDir, "url", SanitizeName(roomName))
}

// dailyPath 某日期 full 文档的路径
func (s *Store) dailyPath(roomName, date string) string {
	return filepath.Join(s.originalDir(roomName), SanitizeName(roomName)+"_"+compactDate(date)+fullSuffix)
}

// summaryPath 某日期 summary 文档的路径
func (s *Store) summaryPath(roomName, date string) string {
	return filepath.Join(s.summaryDir(roomName), SanitizeName(roomName)+"_"+compactDate(date)+summarySuffix)
}

// SaveDaily 合并写入某日期的消息行
// 读出已有文档的消息行，与新行按去重键（去首尾空白）合并，已有行优先，
// 新行按输入顺序追加到末尾。返回合并后文档的总行数和本次新增行数。
// 相同内容重复写入为 no-op，文档行数单调不减
func (s *Store) SaveDaily(roomName, date string, lines []string) (total, added int, err error) {
	if err := os.MkdirAll(s.originalDir(roomName), 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create room directory: %w", err)
	}

	existing, err := s.LoadDaily(roomName, date)
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(lines))
	for _, line := range existing {
		merged = append(merged, line)
		seen[strings.TrimSpace(line)] = true
	}
	for _, line := range lines {
		key := strings.TrimSpace(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, line)
		added++
	}

	// 没有新行时不重写文件，保持修改时间不变
	if added == 0 && len(existing) > 0 {
		return len(merged), 0, nil
	}

	if err := s.writeDaily(roomName, date, merged); err != nil {
		return 0, 0, err
	}

	s.logger.Debug("daily document saved",
		"room", roomName, "date", date, "total", len(merged), "added", added)
	return len(merged), added, nil
}

// writeDaily 完整重写某日期的 full 文档
func (s *Store) writeDaily(roomName, date string, lines []string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s - %s\n\n", roomName, date))
	b.WriteString(fmt.Sprintf("메시지 수: %d\n\n", len(lines)))
	b.WriteString("---\n\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%s: %s\n", footerMarker, time.Now().Format("2006-01-02 15:04:05")))

	path := s.dailyPath(roomName, date)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write daily document: %w", err)
	}
	return nil
}

// LoadDaily 读出某日期文档的消息行
// 跳过头部（到第一个 --- 为止）和尾部生成标记，文件不存在返回空
func (s *Store) LoadDaily(roomName, date string) ([]string, error) {
	f, err := os.Open(s.dailyPath(roomName, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open daily document: %w", err)
	}
	defer f.Close()

	var lines []string
	inBody := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.HasPrefix(strings.TrimSpace(line), "---") {
				inBody = true
			}
			continue
		}
		if strings.HasPrefix(line, footerMarker) {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily document: %w", err)
	}
	return lines, nil
}

// MessageCount 某日期文档的消息行数，文件不存在返回 0
func (s *Store) MessageCount(roomName, date string) (int, error) {
	lines, err := s.LoadDaily(roomName, date)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// AvailableDates 房间目录下所有有 full 文档的日期（升序）
func (s *Store) AvailableDates(roomName string) ([]string, error) {
	entries, err := os.ReadDir(s.originalDir(roomName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read room directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if m := dateFileRe.FindStringSubmatch(entry.Name()); m != nil {
			dates = append(dates, expandDate(m[1]))
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// ListRooms 文档根目录下的所有房间名（净化后的目录名）
func (s *Store) ListRooms() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "original"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	var rooms []string
	for _, entry := range entries {
		if entry.IsDir() {
			rooms = append(rooms, entry.Name())
		}
	}
	sort.Strings(rooms)
	return rooms, nil
}

// SaveSummary 写入某日期的总结文档（整体覆盖）
func (s *Store) SaveSummary(roomName, date, content string) error {
	if err := os.MkdirAll(s.summaryDir(roomName), 0755); err != nil {
		return fmt.Errorf("failed to create room directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s - %s 요약\n\n", roomName, date))
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(content, "\n"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("\n%s: %s\n", footerMarker, time.Now().Format("2006-01-02 15:04:05")))

	if err := os.WriteFile(s.summaryPath(roomName, date), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary document: %w", err)
	}
	return nil
}

// LoadSummary 读出某日期的总结正文，文件不存在返回空字符串
func (s *Store) LoadSummary(roomName, date string) (string, error) {
	data, err := os.ReadFile(s.summaryPath(roomName, date))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read summary document: %w", err)
	}

	var body []string
	inBody := false
	for _, line := range strings.Split(string(data), "\n") {
		if !inBody {
			if strings.HasPrefix(strings.TrimSpace(line), "---") {
				inBody = true
			}
			continue
		}
		if strings.HasPrefix(line, footerMarker) {
			break
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n")), nil
}

// HasSummary 某日期是否已有总结文档
func (s *Store) HasSummary(roomName, date string) bool {
	_, err := os.Stat(s.summaryPath(roomName, date))
	return err == nil
}

// DeleteSummary 删除某日期的总结文档（文档增长导致总结失效时调用）
func (s *Store) DeleteSummary(roomName, date string) error {
	err := os.Remove(s.summaryPath(roomName, date))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete summary document: %w", err)
	}
	return nil
}

// SummarizedDates 房间目录下所有有总结文档的日期（升序）
func (s *Store) SummarizedDates(roomName string) ([]string, error) {
	entries, err := os.ReadDir(s.summaryDir(roomName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read room directory: %w", err)
	}

	re := regexp.MustCompile(`_(\d{8})_summary\.md$`)
	var dates []string
	for _, entry := range entries {
		if m := re.FindStringSubmatch(entry.Name()); m != nil {
			dates = append(dates, expandDate(m[1]))
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// sanitizeRe 文件名中不允许的字符
var sanitizeRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeName 房间名净化为安全的文件名：去掉非法字符，空白折叠为下划线
func SanitizeName(name string) string {
	cleaned := sanitizeRe.ReplaceAllString(name, "")
	cleaned = strings.Join(strings.Fields(cleaned), "_")
	if cleaned == "" {
		cleaned = "unnamed"
	}
	return cleaned
}

// compactDate YYYY-MM-DD → YYYYMMDD
func compactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}

// expandDate YYYYMMDD → YYYY-MM-DD
func expandDate(compact string) string {
	if len(compact) != 8 {
		return compact
	}
	return compact[:4] + "-" + compact[4:6] + "-" + compact[6:]
}
