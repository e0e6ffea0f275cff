package ops

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange はページ範囲を表します（Start/End は 1-based, End >= Start）。
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Pages は範囲に含まれるページ数です。
func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

// ParsePageRanges は "1-3,5,8-" 形式の範囲指定を解析します。
// 末尾を省略した範囲 ("8-") は最終ページまでを表します。範囲は昇順で重複できません。
func ParsePageRanges(expr string, pageCount int) ([]PageRange, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, newError(CodeInvalidInput, "ページ範囲を指定してください。", nil)
	}
	if pageCount <= 0 {
		return nil, newError(CodeInvalidInput, "ページ数が不明なため範囲を解釈できません。", nil)
	}

	segments := strings.Split(expr, ",")
	ranges := make([]PageRange, 0, len(segments))
	lastEnd := 0
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, newError(CodeInvalidInput, "空の範囲指定が含まれています。", nil)
		}

		pr, err := parseRangeSegment(seg, pageCount)
		if err != nil {
			return nil, err
		}
		if pr.Start <= lastEnd {
			return nil, newError(CodeInvalidInput, fmt.Sprintf("ページ範囲は重複なく昇順で指定してください (%s)。", seg), nil)
		}
		lastEnd = pr.End
		ranges = append(ranges, pr)
	}
	return ranges, nil
}

// SelectPages は範囲指定を 0-based のページ番号列に変換します。
func SelectPages(expr string, pageCount int) ([]int, error) {
	ranges, err := ParsePageRanges(expr, pageCount)
	if err != nil {
		return nil, err
	}
	var pages []int
	for _, pr := range ranges {
		for p := pr.Start; p <= pr.End; p++ {
			pages = append(pages, p-1)
		}
	}
	return pages, nil
}

func parseRangeSegment(seg string, pageCount int) (PageRange, error) {
	startRaw, endRaw, isRange := strings.Cut(seg, "-")
	start, err := strconv.Atoi(strings.TrimSpace(startRaw))
	if err != nil {
		return PageRange{}, newError(CodeInvalidInput, fmt.Sprintf("ページ番号が整数ではありません (%s)。", seg), nil)
	}

	end := start
	if isRange {
		endRaw = strings.TrimSpace(endRaw)
		if endRaw == "" {
			end = pageCount
		} else if end, err = strconv.Atoi(endRaw); err != nil {
			return PageRange{}, newError(CodeInvalidInput, fmt.Sprintf("範囲終了が整数ではありません (%s)。", seg), nil)
		}
	}

	if start < 1 || end < start || end > pageCount {
		return PageRange{}, newError(CodeInvalidInput, fmt.Sprintf("範囲 %s がページ数(%d)の範囲外です。", seg, pageCount), nil)
	}
	return PageRange{Start: start, End: end}, nil
}
