package summary

import (
	"regexp"
	"strings"
)

// urlRe 匹配第一个 http(s) 链接
// 空白、引号、括号和谚文字符都终止 URL
var urlRe = regexp.MustCompile(`(?i)(https?://[^\s<>"')\]가-힣]+)`)

// bracketRe 行内的 [닉네임]/[시간] 等注记
var bracketRe = regexp.MustCompile(`\[.*?\]`)

// parenRe 取尾部括号里的描述
var parenRe = regexp.MustCompile(`\((.+)\)`)

// emptyParenRe 空括号残留
var emptyParenRe = regexp.MustCompile(`\(\s*\)`)

// linkSectionHeadings 总结中链接节的标题变体
var linkSectionHeadings = []string{"### 링크", "### 🔗 링크", "### URL", "2. 공유된 중요 링크"}

// ExtractedURL 从总结中提取出的一条链接
type ExtractedURL struct {
	URL          string
	Descriptions []string
}

// ExtractURLs 从总结 Markdown 中提取链接节内的全部链接
// 只扫描链接节：节从任一已知标题开始，到下一个非列表标题行结束；
// 同一 URL 多次出现时描述去重合并，保持首次出现顺序
func ExtractURLs(text string) []*ExtractedURL {
	byURL := make(map[string]*ExtractedURL)
	var ordered []*ExtractedURL

	inSection := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if isLinkSectionHeading(line) {
			inSection = true
			continue
		}
		if inSection && isSectionEnd(line) {
			inSection = false
			continue
		}
		if !inSection {
			continue
		}

		url, desc := extractURLWithDescription(line)
		if url == "" {
			continue
		}

		entry, ok := byURL[url]
		if !ok {
			entry = &ExtractedURL{URL: url}
			byURL[url] = entry
			ordered = append(ordered, entry)
		}
		if desc != "" && !containsString(entry.Descriptions, desc) {
			entry.Descriptions = append(entry.Descriptions, desc)
		}
	}
	return ordered
}

// isLinkSectionHeading 是否为链接节标题
func isLinkSectionHeading(line string) bool {
	for _, heading := range linkSectionHeadings {
		if strings.Contains(line, heading) {
			return true
		}
	}
	return false
}

// isSectionEnd 是否为结束链接节的新节标题
// 列表项和裸链接行不终止节
func isSectionEnd(line string) bool {
	if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "http") {
		return false
	}
	if strings.HasPrefix(line, "### ") || strings.HasPrefix(line, "## ") {
		return true
	}
	// "3. 다음 섹션" 式编号标题
	if len(line) >= 3 && line[0] >= '0' && line[0] <= '9' && line[1] == '.' {
		return true
	}
	return false
}

// extractURLWithDescription 从一行提取 URL 和描述
// 先剥掉 [..] 注记和 "- " 列表标记，再找第一个链接；
// 描述优先取 URL 后的括号内容，否则用 URL 前后剩余文本（去掉前导冒号）
func extractURLWithDescription(line string) (string, string) {
	cleaned := strings.TrimSpace(bracketRe.ReplaceAllString(line, ""))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "- "))

	loc := urlRe.FindStringIndex(cleaned)
	if loc == nil {
		return "", ""
	}
	url := cleaned[loc[0]:loc[1]]

	// 去掉正则贪婪匹配带上的尾部标点
	url = strings.TrimRight(url, `.,;:!?)]'"`)

	after := strings.TrimSpace(cleaned[loc[1]:])
	if m := parenRe.FindStringSubmatch(after); m != nil {
		return url, strings.TrimSpace(m[1])
	}

	// "설명: https://…" 形式的前置描述要去掉尾部冒号
	before := strings.TrimSuffix(strings.TrimSpace(cleaned[:loc[0]]), ":")
	desc := strings.TrimSpace(before + " " + after)
	desc = strings.TrimSpace(strings.TrimPrefix(desc, ":"))
	desc = strings.TrimSpace(emptyParenRe.ReplaceAllString(desc, ""))
	return url, desc
}

// containsString 切片包含检查
func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
