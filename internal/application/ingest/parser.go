package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

// ParseResult 导出文件按日期分组的解析结果
type ParseResult struct {
	// LinesByDate 日期（YYYY-MM-DD）→ 当日消息行（文件内顺序）
	LinesByDate map[string][]string
}

// Dates 有内容的日期列表（升序）
func (r *ParseResult) Dates() []string {
	dates := make([]string, 0, len(r.LinesByDate))
	for date := range r.LinesByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// TotalLines 全部日期的消息行总数
func (r *ParseResult) TotalLines() int {
	total := 0
	for _, lines := range r.LinesByDate {
		total += len(lines)
	}
	return total
}

// DecodeExport 解码导出文件内容
// 有效 UTF-8 原样返回；否则按 EUC-KR（CP949）解码，
// 无效字节替换为 U+FFFD，不因个别坏字节放弃整个文件
func DecodeExport(data []byte) (string, error) {
	// 跳过 UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode export file: %w", err)
	}
	return string(decoded), nil
}

// Parse 把导出文本解析为按日期分组的消息行
// 第一个日期边界之前的行（房间标题、导出时间等）丢弃，空白行跳过
func Parse(r io.Reader) (*ParseResult, error) {
	result := &ParseResult{LinesByDate: make(map[string][]string)}

	currentDate := ""
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if date, consumed, ok := detectDate(line); ok {
			currentDate = date
			if consumed {
				continue
			}
		}

		if currentDate == "" || strings.TrimSpace(line) == "" {
			continue
		}
		result.LinesByDate[currentDate] = append(result.LinesByDate[currentDate], line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	return result, nil
}

// ParseBytes 解码并解析导出文件内容
func ParseBytes(data []byte) (*ParseResult, error) {
	text, err := DecodeExport(data)
	if err != nil {
		return nil, err
	}
	return Parse(strings.NewReader(text))
}
