package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// messageRe 匹配文档中的标准消息行
// [발신자] [오전|오후 h:mm] 본문，本文允许跨行（换行已折叠进同一行时）
var messageRe = regexp.MustCompile(`(?s)\[(.*?)\]\s*\[(오전|오후)\s*(\d{1,2}):(\d{2})\]\s*(.*)`)

// ExtractMessage 从一条文档行提取结构化消息
// 不匹配标准格式的行（入场/退场公告等）返回 nil，
// 这类行保留在文档中但不进入关系库
func ExtractMessage(line, date string) *domainChat.Message {
	m := messageRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	hour, err := strconv.Atoi(m[3])
	if err != nil || hour < 1 || hour > 12 {
		return nil
	}
	minute, err := strconv.Atoi(m[4])
	if err != nil || minute > 59 {
		return nil
	}

	return &domainChat.Message{
		Sender:  strings.TrimSpace(m[1]),
		Body:    strings.TrimSpace(m[5]),
		Date:    date,
		Time:    fmt.Sprintf("%02d:%02d", to24Hour(m[2], hour), minute),
		RawLine: line,
	}
}

// ExtractMessages 批量提取，跳过不匹配的行
func ExtractMessages(lines []string, date string) []*domainChat.Message {
	var messages []*domainChat.Message
	for _, line := range lines {
		if msg := ExtractMessage(line, date); msg != nil {
			messages = append(messages, msg)
		}
	}
	return messages
}

// to24Hour 오전/오후 12 小时制转 24 小时制
// 오후 12시 = 12，오전 12시 = 0
func to24Hour(meridiem string, hour int) int {
	if meridiem == "오후" && hour != 12 {
		return hour + 12
	}
	if meridiem == "오전" && hour == 12 {
		return 0
	}
	return hour
}
