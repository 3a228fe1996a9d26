package summary

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
	"github.com/kakaosum/backend/internal/infrastructure/docstore"
	"github.com/kakaosum/backend/internal/infrastructure/llm"
	"github.com/kakaosum/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter 假 LLM：按日期返回预置内容
type fakeCompleter struct {
	responses map[string]string // prompt 包含的日期片段 → 响应
	fallback  string
	err       error
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) *llm.Result {
	f.calls++
	if f.err != nil {
		return &llm.Result{Provider: "fake", Err: f.err}
	}
	for key, content := range f.responses {
		if strings.Contains(prompt, key) {
			return &llm.Result{Provider: "fake", Content: content}
		}
	}
	return &llm.Result{Provider: "fake", Content: f.fallback}
}

func (f *fakeCompleter) ProviderName() string { return "fake" }

// validSummaryWith 带链接节的合法总结内容
func validSummaryWith(links ...string) string {
	lines := []string{
		"### 🌟 한줄요약",
		"오늘은 도구와 링크 공유가 활발했던 하루였음",
		"### 🔗 링크",
	}
	for _, link := range links {
		lines = append(lines, "- "+link)
	}
	lines = append(lines, "### 📢 공지", "- 없음")
	return strings.Join(lines, "\n")
}

// summaryTestEnv 总结服务测试环境
type summaryTestEnv struct {
	service   *Service
	fake      *fakeCompleter
	docs      *docstore.Store
	summaries storage.SummaryRepository
	urls      storage.URLRepository
	room      *domainChat.Room
}

// setupSummaryEnv 搭建测试环境并预置一个房间和一天的文档
func setupSummaryEnv(t *testing.T) *summaryTestEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := storage.OpenDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	docs, err := docstore.NewStoreAt(filepath.Join(dir, "data"))
	require.NoError(t, err)

	rooms := storage.NewRoomRepository(db)
	room, err := rooms.Create("테스트방", "")
	require.NoError(t, err)

	_, _, err = docs.SaveDaily("테스트방", "2024-03-15", []string{
		"[김철수] [오전 9:30] 안녕하세요",
		"[이영희] [오전 9:31] https://example.com 좋은 글이에요",
	})
	require.NoError(t, err)

	fake := &fakeCompleter{responses: make(map[string]string)}
	env := &summaryTestEnv{
		fake:      fake,
		docs:      docs,
		summaries: storage.NewSummaryRepository(db),
		urls:      storage.NewURLRepository(db),
		room:      room,
	}
	env.service = newServiceWith(fake, docs, rooms, env.summaries, env.urls)
	return env
}

func TestService_SummarizeDate(t *testing.T) {
	env := setupSummaryEnv(t)
	env.fake.fallback = validSummaryWith("[김철수] 좋은 글: https://example.com/article")

	summary, err := env.service.SummarizeDate(context.Background(), env.room, "2024-03-15")
	require.NoError(t, err)

	assert.Equal(t, domainChat.SummaryTypeDaily, summary.Type)
	assert.Equal(t, "fake", summary.Provider)

	// 文件与 DB 双写
	assert.True(t, env.docs.HasSummary("테스트방", "2024-03-15"))
	row, err := env.summaries.FindByDate(env.room.ID, "2024-03-15", domainChat.SummaryTypeDaily)
	require.NoError(t, err)
	require.NotNil(t, row)

	// 链接视图随总结归并
	entries, err := env.urls.FindByRoom(env.room.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/article", entries[0].URL)
}

func TestService_SummarizeDate_RejectedNotStored(t *testing.T) {
	env := setupSummaryEnv(t)
	env.fake.fallback = "### 짧음" // 校验不过

	_, err := env.service.SummarizeDate(context.Background(), env.room, "2024-03-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")

	// 不合格的总结不留任何工件
	assert.False(t, env.docs.HasSummary("테스트방", "2024-03-15"))
	row, err := env.summaries.FindByDate(env.room.ID, "2024-03-15", domainChat.SummaryTypeDaily)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestService_SummarizeDate_NoDocument(t *testing.T) {
	env := setupSummaryEnv(t)

	_, err := env.service.SummarizeDate(context.Background(), env.room, "2024-01-01")
	require.Error(t, err)
	assert.Equal(t, 0, env.fake.calls, "没有文档时不应调用 LLM")
}

func TestService_SummarizeDate_Replaces(t *testing.T) {
	env := setupSummaryEnv(t)

	env.fake.fallback = validSummaryWith("https://first.example.com")
	_, err := env.service.SummarizeDate(context.Background(), env.room, "2024-03-15")
	require.NoError(t, err)

	env.fake.fallback = validSummaryWith("https://second.example.com")
	_, err = env.service.SummarizeDate(context.Background(), env.room, "2024-03-15")
	require.NoError(t, err)

	all, err := env.summaries.FindByRoom(env.room.ID)
	require.NoError(t, err)
	require.Len(t, all, 1, "重新生成应替换而非追加")
	assert.Contains(t, all[0].Content, "second.example.com")
}

func TestService_SummarizeRange_PartialFailure(t *testing.T) {
	env := setupSummaryEnv(t)
	_, _, err := env.docs.SaveDaily("테스트방", "2024-03-16", []string{"[김철수] [오전 8:00] 좋은 아침"})
	require.NoError(t, err)

	// 3/16 的响应不合格，3/15 正常
	env.fake.fallback = validSummaryWith("https://example.com")
	env.fake.responses["좋은 아침"] = "### 짧음"

	report := env.service.SummarizeRange(context.Background(), env.room,
		[]string{"2024-03-15", "2024-03-16"})

	assert.Equal(t, []string{"2024-03-15"}, report.Completed)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed["2024-03-16"], "rejected")
	assert.False(t, report.Canceled)
}

func TestService_SummarizeRange_CancelKeepsCompleted(t *testing.T) {
	env := setupSummaryEnv(t)
	_, _, err := env.docs.SaveDaily("테스트방", "2024-03-16", []string{"[김철수] [오전 8:00] 좋은 아침"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	env.fake.fallback = validSummaryWith("https://example.com")

	// 第一天完成后取消
	env.fake.responses["안녕하세요"] = validSummaryWith("https://example.com")
	done := make(chan *RangeReport, 1)
	go func() {
		report := env.service.SummarizeRange(ctx, env.room, []string{"2024-03-15"})
		done <- report
	}()
	first := <-done
	require.Equal(t, []string{"2024-03-15"}, first.Completed)

	cancel()
	second := env.service.SummarizeRange(ctx, env.room, []string{"2024-03-16"})
	assert.True(t, second.Canceled)
	assert.Empty(t, second.Completed)

	// 已完成日期的工件保留
	assert.True(t, env.docs.HasSummary("테스트방", "2024-03-15"))
}

func TestDateInWindow_LocalZoneBoundary(t *testing.T) {
	// UTC 로는 아직 3월 19일인 KST 자정 직후
	kst := time.FixedZone("KST", 9*3600)
	now := time.Date(2024, 3, 20, 0, 30, 0, 0, kst)

	assert.True(t, dateInWindow("2024-03-17", docstore.URLWindowRecent, now), "recent 창의 경계 날짜 포함")
	assert.False(t, dateInWindow("2024-03-16", docstore.URLWindowRecent, now), "경계 밖 날짜 제외")
	assert.True(t, dateInWindow("2024-03-13", docstore.URLWindowWeekly, now))
	assert.False(t, dateInWindow("2024-03-12", docstore.URLWindowWeekly, now))
	assert.True(t, dateInWindow("2020-01-01", docstore.URLWindowAll, now))
}

func TestService_Consolidate_WindowMonotonicity(t *testing.T) {
	env := setupSummaryEnv(t)
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	// 三个日期分别落入 recent(3d)、weekly(7d)、仅 all
	require.NoError(t, env.docs.SaveSummary("테스트방", "2024-03-19",
		validSummaryWith("https://recent.example.com")))
	require.NoError(t, env.docs.SaveSummary("테스트방", "2024-03-15",
		validSummaryWith("https://weekly.example.com")))
	require.NoError(t, env.docs.SaveSummary("테스트방", "2024-03-01",
		validSummaryWith("https://old.example.com")))

	require.NoError(t, env.service.Consolidate(env.room, now))

	recent, err := env.docs.LoadURLFile("테스트방", docstore.URLWindowRecent)
	require.NoError(t, err)
	weekly, err := env.docs.LoadURLFile("테스트방", docstore.URLWindowWeekly)
	require.NoError(t, err)
	all, err := env.docs.LoadURLFile("테스트방", docstore.URLWindowAll)
	require.NoError(t, err)

	assert.Len(t, recent, 1)
	assert.Len(t, weekly, 2)
	assert.Len(t, all, 3)

	// all ⊇ weekly ⊇ recent
	urlSet := func(entries []*domainChat.URLEntry) map[string]bool {
		set := make(map[string]bool)
		for _, e := range entries {
			set[e.URL] = true
		}
		return set
	}
	allSet, weeklySet := urlSet(all), urlSet(weekly)
	for url := range urlSet(recent) {
		assert.True(t, weeklySet[url], "recent 中的 %s 应出现在 weekly", url)
	}
	for url := range weeklySet {
		assert.True(t, allSet[url], "weekly 中的 %s 应出现在 all", url)
	}

	// DB 行为全量视图
	entries, err := env.urls.FindByRoom(env.room.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_Consolidate_MergesAcrossDates(t *testing.T) {
	env := setupSummaryEnv(t)
	now := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)

	// 同一 URL 两天都出现，描述不同
	require.NoError(t, env.docs.SaveSummary("테스트방", "2024-03-15",
		validSummaryWith("첫 설명: https://example.com/article")))
	require.NoError(t, env.docs.SaveSummary("테스트방", "2024-03-16",
		validSummaryWith("둘째 설명: https://example.com/article")))

	require.NoError(t, env.service.Consolidate(env.room, now))

	all, err := env.docs.LoadURLFile("테스트방", docstore.URLWindowAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"첫 설명", "둘째 설명"}, all[0].Descriptions)

	entries, err := env.urls.FindByRoom(env.room.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-15", entries[0].SourceDate, "source_date 应保留最早出现日期")
}
