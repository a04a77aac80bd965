package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 日期的唯一对外格式
const DateLayout = "2006-01-02"

var (
	errClockFormat = errors.New("时间格式应为 HH:MM")
	errClockRange  = errors.New("时间超出 00:00-23:59 范围")
)

// ParseClock 解析 HH:MM（兼容 PostgreSQL 返回的 HH:MM:SS），返回距午夜的分钟数
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errClockFormat
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 {
		return 0, errClockFormat
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, errClockFormat
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, errClockFormat
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errClockRange
	}
	return h*60 + m, nil
}

// FormatClock 分钟数转回 HH:MM
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeClock 统一为 HH:MM
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}

// ParseDate 解析 YYYY-MM-DD，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOnly 截断为 UTC 零点
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate 日期格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ── 时间窗口 ──

// TimeWindow 半开区间 [Start, End)，单位为距午夜的分钟数
type TimeWindow struct {
	Start int `json:"-"`
	End   int `json:"-"`
}

// ParseWindow 解析起止时间，要求 start 严格早于 end
func ParseWindow(start, end string) (TimeWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	if s >= e {
		return TimeWindow{}, errors.New("开始时间必须早于结束时间")
	}
	return TimeWindow{Start: s, End: e}, nil
}

// Overlaps 两个半开区间是否重叠；首尾相接不算重叠
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

// Duration 窗口长度（分钟）
func (w TimeWindow) Duration() int { return w.End - w.Start }

// IsZero 是否为空窗口
func (w TimeWindow) IsZero() bool { return w.Start == 0 && w.End == 0 }

func (w TimeWindow) String() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}
