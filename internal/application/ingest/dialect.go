package ingest

import (
	"fmt"
	"regexp"
	"strconv"
)

// dateDetector 日期边界探测策略
// 카카오톡导出格式因平台和版本而异，每种方言一个命名探测器；
// consumesLine 为 true 表示日期行本身只是分隔符，不计入当日内容
type dateDetector struct {
	name         string
	re           *regexp.Regexp
	consumesLine bool
}

// 探测器按声明顺序尝试，边界方言优先于内嵌日期方言
var dateDetectors = []dateDetector{
	{
		// PC 版：--------------- 2024년 3월 15일 금요일 ---------------
		name:         "dashed-korean",
		re:           regexp.MustCompile(`-{5,}\s*(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`),
		consumesLine: true,
	},
	{
		// 旧版导出：-------- 2024. 3. 15. --------
		name:         "dashed-dotted",
		re:           regexp.MustCompile(`-{5,}\s*(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.?`),
		consumesLine: true,
	},
	{
		// 移动版：日期内嵌在消息行中
		// 2024. 3. 15. 오전 9:30, 김철수 : 안녕하세요
		name:         "embedded-date",
		re:           regexp.MustCompile(`^(\d{4})[년.]\s*(\d{1,2})[월.]\s*(\d{1,2})[일.].*?,\s*(?:.*?):(?:.*)`),
		consumesLine: false,
	},
}

// detectDate 尝试从行中识别日期边界
// 返回规范化日期（YYYY-MM-DD）、该行是否被消费、是否命中
func detectDate(line string) (date string, consumed, ok bool) {
	for _, d := range dateDetectors {
		m := d.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if !validDate(year, month, day) {
			continue
		}
		return formatDate(year, month, day), d.consumesLine, true
	}
	return "", false, false
}

// validDate 粗校验，过滤掉把编号误认成日期的情况
func validDate(year, month, day int) bool {
	return year >= 1990 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// formatDate 零填充为 YYYY-MM-DD
func formatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
