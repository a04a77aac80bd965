package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RecurrenceKind 活动重复方式（封闭枚举，库内只存规范值）
type RecurrenceKind string

const (
	RecurrenceSingle  RecurrenceKind = "single"
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
)

// recurrenceAliases 边界输入到规范值的唯一映射表
// 键为去重音、小写后的写法
var recurrenceAliases = map[string]RecurrenceKind{
	"single":    RecurrenceSingle,
	"once":      RecurrenceSingle,
	"unica":     RecurrenceSingle,
	"puntual":   RecurrenceSingle,
	"1":         RecurrenceSingle,
	"daily":     RecurrenceDaily,
	"diaria":    RecurrenceDaily,
	"diario":    RecurrenceDaily,
	"2":         RecurrenceDaily,
	"weekly":    RecurrenceWeekly,
	"semanal":   RecurrenceWeekly,
	"periodica": RecurrenceWeekly,
	"3":         RecurrenceWeekly,
	"monthly":   RecurrenceMonthly,
	"mensual":   RecurrenceMonthly,
	"4":         RecurrenceMonthly,
}

// ParseRecurrenceKind 将任意常见写法（大小写、重音不敏感）归一为 RecurrenceKind
func ParseRecurrenceKind(raw string) (RecurrenceKind, bool) {
	kind, ok := recurrenceAliases[foldKey(raw)]
	return kind, ok
}

// Valid 是否为规范值
func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurrenceSingle, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}
