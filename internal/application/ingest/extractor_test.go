package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMessage_TimeConversion(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{"오전 일반", "[김철수] [오전 9:30] 안녕", "09:30"},
		{"오후 일반", "[김철수] [오후 2:05] 안녕", "14:05"},
		{"오후 12시는 정오", "[김철수] [오후 12:00] 점심", "12:00"},
		{"오전 12시는 자정", "[김철수] [오전 12:15] 늦었다", "00:15"},
		{"오후 11시", "[김철수] [오후 11:59] 굿나잇", "23:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ExtractMessage(tt.line, "2024-03-15")
			require.NotNil(t, msg)
			assert.Equal(t, tt.expected, msg.Time)
		})
	}
}

func TestExtractMessage_Fields(t *testing.T) {
	line := "[김철수] [오전 9:30] 안녕하세요 여러분"
	msg := ExtractMessage(line, "2024-03-15")
	require.NotNil(t, msg)

	assert.Equal(t, "김철수", msg.Sender)
	assert.Equal(t, "안녕하세요 여러분", msg.Body)
	assert.Equal(t, "2024-03-15", msg.Date)
	assert.Equal(t, line, msg.RawLine, "原始行应原样保留")
}

func TestExtractMessage_MultilineBody(t *testing.T) {
	// 跨行消息在文档中折叠为一条带换行的行
	line := "[김철수] [오후 3:00] 첫 줄\n둘째 줄\n셋째 줄"
	msg := ExtractMessage(line, "2024-03-15")
	require.NotNil(t, msg)
	assert.Equal(t, "첫 줄\n둘째 줄\n셋째 줄", msg.Body)
}

func TestExtractMessage_NonMatchingLines(t *testing.T) {
	// 入场/退场公告等不匹配标准格式的行不进入关系库
	for _, line := range []string{
		"김철수님이 들어왔습니다.",
		"이영희님이 나갔습니다.",
		"사진",
		"[김철수] 시간 없는 줄",
	} {
		assert.Nil(t, ExtractMessage(line, "2024-03-15"), "line: %s", line)
	}
}

func TestExtractMessage_InvalidTime(t *testing.T) {
	// 12 小时制下不存在的时刻
	assert.Nil(t, ExtractMessage("[김철수] [오전 0:30] 안녕", "2024-03-15"))
	assert.Nil(t, ExtractMessage("[김철수] [오후 13:00] 안녕", "2024-03-15"))
}

func TestExtractMessages_SkipsNonMatching(t *testing.T) {
	lines := []string{
		"[김철수] [오전 9:30] 안녕하세요",
		"김철수님이 들어왔습니다.",
		"[이영희] [오전 9:31] 반가워요",
	}

	messages := ExtractMessages(lines, "2024-03-15")
	require.Len(t, messages, 2)
	assert.Equal(t, "김철수", messages[0].Sender)
	assert.Equal(t, "이영희", messages[1].Sender)
}
