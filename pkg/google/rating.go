package google

import (
	"time"
)

// ParseStarRating 星级枚举转数字，未知值返回 0
func ParseStarRating(s string) int {
	switch s {
	case "ONE":
		return 1
	case "TWO":
		return 2
	case "THREE":
		return 3
	case "FOUR":
		return 4
	case "FIVE":
		return 5
	default:
		return 0
	}
}

// ParseTime 解析 RFC3339 时间，空串或格式错误返回 nil
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
