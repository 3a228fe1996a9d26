package docstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore 创建临时测试文档存储
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStore_SaveDaily_MergeIsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	lines := []string{
		"[김철수] [09:30] 안녕하세요",
		"[이영희] [09:31] 반가워요",
	}

	total, added, err := store.SaveDaily("테스트방", "2024-03-15", lines)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, added)

	// 相同内容重复写入应为 no-op
	total, added, err = store.SaveDaily("테스트방", "2024-03-15", lines)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, added, "重复写入不应新增行")
}

func TestStore_SaveDaily_IncrementalAppend(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.SaveDaily("테스트방", "2024-03-15", []string{
		"[김철수] [09:30] 안녕하세요",
	})
	require.NoError(t, err)

	// 增量导出：旧行 + 新行，只有新行被追加
	total, added, err := store.SaveDaily("테스트방", "2024-03-15", []string{
		"[김철수] [09:30] 안녕하세요",
		"[이영희] [10:00] 점심 먹었어요?",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, added)

	loaded, err := store.LoadDaily("테스트방", "2024-03-15")
	require.NoError(t, err)
	// 已有行保持在前，新行追加在后
	assert.Equal(t, []string{
		"[김철수] [09:30] 안녕하세요",
		"[이영희] [10:00] 점심 먹었어요?",
	}, loaded)
}

func TestStore_SaveDaily_DedupByTrimmedLine(t *testing.T) {
	store := setupTestStore(t)

	// 仅首尾空白不同的行视为同一行
	_, added, err := store.SaveDaily("테스트방", "2024-03-15", []string{
		"[김철수] [09:30] 안녕하세요",
		"  [김철수] [09:30] 안녕하세요  ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestStore_LoadDaily_SkipsHeaderAndFooter(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.SaveDaily("테스트방", "2024-03-15", []string{"[a] [09:00] hi"})
	require.NoError(t, err)

	// 文件本身应包含头部、分隔线和生成标记
	path := store.dailyPath("테스트방", "2024-03-15")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# 테스트방 - 2024-03-15"))
	assert.Contains(t, content, "---")
	assert.Contains(t, content, footerMarker)

	// 读出只有消息行
	lines, err := store.LoadDaily("테스트방", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"[a] [09:00] hi"}, lines)
}

func TestStore_LoadDaily_MissingFile(t *testing.T) {
	store := setupTestStore(t)

	lines, err := store.LoadDaily("없는방", "2024-03-15")
	require.NoError(t, err)
	assert.Empty(t, lines)

	count, err := store.MessageCount("없는방", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_AvailableDates(t *testing.T) {
	store := setupTestStore(t)

	for _, date := range []string{"2024-03-16", "2024-03-14", "2024-03-15"} {
		_, _, err := store.SaveDaily("테스트방", date, []string{"[a] [09:00] " + date})
		require.NoError(t, err)
	}
	// 总结文件不应计入
	require.NoError(t, store.SaveSummary("테스트방", "2024-03-14", "요약"))

	dates, err := store.AvailableDates("테스트방")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-14", "2024-03-15", "2024-03-16"}, dates)
}

func TestStore_SummaryRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	content := "## 주요 대화\n- 점심 약속을 잡음\n\n### 🔗 링크\n- https://example.com"
	require.NoError(t, store.SaveSummary("테스트방", "2024-03-15", content))

	assert.True(t, store.HasSummary("테스트방", "2024-03-15"))

	loaded, err := store.LoadSummary("테스트방", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, content, loaded)

	dates, err := store.SummarizedDates("테스트방")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-15"}, dates)

	require.NoError(t, store.DeleteSummary("테스트방", "2024-03-15"))
	assert.False(t, store.HasSummary("테스트방", "2024-03-15"))

	// 再次删除不存在的总结应为 no-op
	require.NoError(t, store.DeleteSummary("테스트방", "2024-03-15"))
}

func TestStore_URLFileRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	entries := []*domainChat.URLEntry{
		{URL: "https://example.com/article", Descriptions: []string{"좋은 글", "다시 공유됨"}},
		{URL: "https://news.example.com"},
	}

	require.NoError(t, store.SaveURLFile("테스트방", URLWindowRecent, entries))

	loaded, err := store.LoadURLFile("테스트방", URLWindowRecent)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "https://example.com/article", loaded[0].URL)
	assert.Equal(t, []string{"좋은 글", "다시 공유됨"}, loaded[0].Descriptions)
	assert.Equal(t, "https://news.example.com", loaded[1].URL)
	assert.Empty(t, loaded[1].Descriptions)

	// 磁盘格式：多条描述用 " / " 拼接
	raw, err := os.ReadFile(store.urlFilePath("테스트방", URLWindowRecent))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "- 💬 좋은 글 / 다시 공유됨")

	// 其他窗口的文件互不影响
	missing, err := store.LoadURLFile("테스트방", URLWindowAll)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"普通名称", "테스트방", "테스트방"},
		{"包含空格", "우리 가족 단톡방", "우리_가족_단톡방"},
		{"非法字符", `친구들<3>:"방"`, "친구들3방"},
		{"路径分隔符", "a/b\\c", "abc"},
		{"全是非法字符", `<>:"/\|?*`, "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestURLWindow_Days(t *testing.T) {
	assert.Equal(t, 3, URLWindowRecent.Days())
	assert.Equal(t, 7, URLWindowWeekly.Days())
	assert.Equal(t, 0, URLWindowAll.Days())

	assert.True(t, URLWindowRecent.Valid())
	assert.False(t, URLWindow("monthly").Valid())
}

func TestStore_FileNaming(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.SaveDaily("우리 가족", "2024-03-15", []string{"[a] [09:00] hi"})
	require.NoError(t, err)

	// 文件名遵循 original/<room>/<room>_<yyyymmdd>_full.md 约定
	expected := filepath.Join(store.BaseDir(), "original", "우리_가족", "우리_가족_20240315_full.md")
	_, err = os.Stat(expected)
	assert.NoError(t, err)
}
