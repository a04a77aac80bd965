package service

import (
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// DateSequence 活动展开后的日期序列
// 只保存规则本身，每次 Seq() 都从头重新计算，可重复遍历
type DateSequence struct {
	start time.Time
	rule  *rrule.RRule // 单次活动为 nil
}

// Seq 按升序惰性产出日期（UTC 零点）
func (s DateSequence) Seq() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if s.rule == nil {
			yield(s.start)
			return
		}
		next := s.rule.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			if !yield(model.DateOnly(t)) {
				return
			}
		}
	}
}

// All 物化全部日期
func (s DateSequence) All() []time.Time {
	var dates []time.Time
	for d := range s.Seq() {
		dates = append(dates, d)
	}
	return dates
}

// recurrenceViolations 重复方式与日期范围的组合校验
func recurrenceViolations(start time.Time, end *time.Time, kind model.RecurrenceKind) []pkgerrors.FieldViolation {
	var violations []pkgerrors.FieldViolation
	if !kind.Valid() {
		violations = append(violations, pkgerrors.FieldViolation{Field: "recurrence", Message: "不支持的重复方式"})
	}
	if end != nil {
		if model.DateOnly(*end).Before(model.DateOnly(start)) {
			violations = append(violations, pkgerrors.FieldViolation{Field: "end_date", Message: "结束日期不能早于开始日期"})
		}
	} else if kind != model.RecurrenceSingle {
		violations = append(violations, pkgerrors.FieldViolation{Field: "end_date", Message: "重复活动必须提供结束日期"})
	}
	return violations
}

// ExpandRecurrence 将活动的日期范围与重复方式展开为日期序列
//
//   - single: 只有开始日期，忽略结束日期
//   - daily: 开始到结束（含）每天一次
//   - weekly: 从开始日期起每 7 天一次，不超过结束日期
//   - monthly: 每月与开始日期同一天，不存在的日子取当月最后一天
//
// 结束日期早于开始日期、非单次活动缺少结束日期、展开数量超过 maxOccurrences 时
// 返回 InvalidRecurrence，并列出全部违规字段
func ExpandRecurrence(start time.Time, end *time.Time, kind model.RecurrenceKind, maxOccurrences int) (DateSequence, error) {
	start = model.DateOnly(start)
	if violations := recurrenceViolations(start, end, kind); len(violations) > 0 {
		return DateSequence{}, pkgerrors.NewInvalidRecurrence(violations...)
	}

	var until time.Time
	if end != nil {
		until = model.DateOnly(*end)
	}

	if kind == model.RecurrenceSingle {
		return DateSequence{start: start}, nil
	}

	opt := rrule.ROption{
		Dtstart:  start,
		Until:    until,
		Interval: 1,
	}
	switch kind {
	case model.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case model.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case model.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		if day := start.Day(); day > 28 {
			// 29-31 号：取 28..day 中当月存在的最后一天，短月自动落到月末
			days := make([]int, 0, day-27)
			for d := 28; d <= day; d++ {
				days = append(days, d)
			}
			opt.Bymonthday = days
			opt.Bysetpos = []int{-1}
		}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return DateSequence{}, pkgerrors.NewInvalidRecurrence(pkgerrors.FieldViolation{Field: "recurrence", Message: err.Error()})
	}

	seq := DateSequence{start: start, rule: rule}
	if maxOccurrences > 0 {
		count := 0
		for range seq.Seq() {
			count++
			if count > maxOccurrences {
				return DateSequence{}, pkgerrors.NewInvalidRecurrence(pkgerrors.FieldViolation{
					Field:   "end_date",
					Message: fmt.Sprintf("展开后的日期数超过上限 %d", maxOccurrences),
				})
			}
		}
	}

	return seq, nil
}
