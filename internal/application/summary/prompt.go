package summary

import (
	"fmt"
	"regexp"
	"strings"
)

// systemPrompt 总结用系统提示词
const systemPrompt = "채팅 요약 전문가. 음슴체로 짧고 핵심만."

// promptTemplate 日总结提示词骨架
// 섹션结构固定，后端链接提取依赖这些节标题
const promptTemplate = `카카오톡 오픈채팅 대화. 음슴체로 짧게 정리.

### 🌟 한줄요약
핵심 한 문장

### ❓ Q&A
- Q. 질문
  A. 답변 (답변자)

### 💬 주요 토픽
- 주제: 핵심만

### 💡 꿀팁
- 도구, 팁, 단축키

### 🔗 링크
- [닉네임] 설명: URL

### 📢 공지
- 일정, 공지

---
%s
---

요약:`

// BuildPrompt 用当日文档正文生成提示词
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// SystemPrompt 系统提示词
func SystemPrompt() string {
	return systemPrompt
}

// thinkTagRe 推理模型夹带的思考过程块
var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkTags 去除响应中的 <think>...</think> 块
func StripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(text, ""))
}

// minSummaryLength 低于此长度的响应不视为有效总结
const minSummaryLength = 30

// completeEndings 句子未被截断时可接受的结尾字符
const completeEndings = ".!?음슴임함됨요다)]》」"

// ValidateSummary 检查响应是否为可保存的总结
// 检查失败只报告不保存：最小长度、节标记（###）存在、
// 结尾没有明显的句中截断
func ValidateSummary(content string) error {
	content = strings.TrimSpace(content)

	if len([]rune(content)) < minSummaryLength {
		return fmt.Errorf("summary too short (%d chars)", len([]rune(content)))
	}
	if !strings.Contains(content, "###") {
		return fmt.Errorf("summary missing section markers")
	}

	runes := []rune(content)
	last := runes[len(runes)-1]
	if !strings.ContainsRune(completeEndings, last) && !isListLineEnd(content) {
		return fmt.Errorf("summary appears truncated mid-sentence")
	}
	return nil
}

// isListLineEnd 最后一行是列表项或标题时视为正常结尾
// 模板决定了响应经常以列表项收尾
func isListLineEnd(content string) bool {
	lines := strings.Split(content, "\n")
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	return strings.HasPrefix(lastLine, "-") || strings.HasPrefix(lastLine, "#") ||
		strings.Contains(lastLine, "없음")
}
