package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// URLWindow 链接列表的时间窗口视图
type URLWindow string

const (
	// URLWindowRecent 最近 3 天
	URLWindowRecent URLWindow = "recent"
	// URLWindowWeekly 最近 7 天
	URLWindowWeekly URLWindow = "weekly"
	// URLWindowAll 全部历史
	URLWindowAll URLWindow = "all"
)

// Days 窗口对应的天数，0 表示不限
func (w URLWindow) Days() int {
	switch w {
	case URLWindowRecent:
		return 3
	case URLWindowWeekly:
		return 7
	default:
		return 0
	}
}

// Valid 是否为已知窗口
func (w URLWindow) Valid() bool {
	switch w {
	case URLWindowRecent, URLWindowWeekly, URLWindowAll:
		return true
	}
	return false
}

// AllURLWindows 全部窗口，写入时按此顺序生成三份文件
var AllURLWindows = []URLWindow{URLWindowRecent, URLWindowWeekly, URLWindowAll}

// urlFilePath 某窗口链接文件的路径
func (s *Store) urlFilePath(roomName string, window URLWindow) string {
	return filepath.Join(s.urlDir(roomName),
		fmt.Sprintf("%s_urls_%s.md", SanitizeName(roomName), window))
}

// urlEntryRe 匹配链接文件中的编号行
var urlEntryRe = regexp.MustCompile(`^(\d+)\.\s+(\S+)\s*$`)

// descriptionSeparator 多条描述的拼接分隔符，与关系库 urls 表的存储格式一致
const descriptionSeparator = " / "

// SaveURLFile 整体覆盖写入某窗口的链接文件
// 每条链接一个编号行，描述另起一行以 💬 标记，多条描述用 " / " 拼接
func (s *Store) SaveURLFile(roomName string, window URLWindow, entries []*domainChat.URLEntry) error {
	if err := os.MkdirAll(s.urlDir(roomName), 0755); err != nil {
		return fmt.Errorf("failed to create room directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s - 공유된 링크 (%s)\n\n", roomName, window))
	b.WriteString("---\n\n")
	for i, entry := range entries {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, entry.URL))
		if len(entry.Descriptions) > 0 {
			b.WriteString(fmt.Sprintf("- 💬 %s\n", strings.Join(entry.Descriptions, descriptionSeparator)))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%s: %s\n", footerMarker, time.Now().Format("2006-01-02 15:04:05")))

	path := s.urlFilePath(roomName, window)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write url file: %w", err)
	}
	return nil
}

// LoadURLFile 读出某窗口链接文件中的条目（写入的逆操作）
// 文件不存在返回空
func (s *Store) LoadURLFile(roomName string, window URLWindow) ([]*domainChat.URLEntry, error) {
	data, err := os.ReadFile(s.urlFilePath(roomName, window))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}

	var entries []*domainChat.URLEntry
	var current *domainChat.URLEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, footerMarker) {
			break
		}
		if m := urlEntryRe.FindStringSubmatch(line); m != nil {
			if _, err := strconv.Atoi(m[1]); err == nil {
				current = &domainChat.URLEntry{URL: m[2]}
				entries = append(entries, current)
				continue
			}
		}
		trimmed := strings.TrimSpace(line)
		if current != nil && strings.HasPrefix(trimmed, "- 💬") {
			desc := strings.TrimSpace(strings.TrimPrefix(trimmed, "- 💬"))
			for _, d := range strings.Split(desc, descriptionSeparator) {
				if d = strings.TrimSpace(d); d != "" {
					current.Descriptions = append(current.Descriptions, d)
				}
			}
		}
	}
	return entries, nil
}
