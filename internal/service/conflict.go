package service

import (
	"context"
	"sort"
	"time"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
)

// ConflictDetector 场地时间冲突检测
// 只考虑同场地、同一天、状态为 scheduled 的预约；区间为半开 [start, end)
type ConflictDetector struct {
	operating      model.TimeWindow
	maxSuggestions int
}

// NewConflictDetector 根据排期配置创建检测器
// 营业时段在配置加载时已校验，解析失败时退回 08:00-20:00
func NewConflictDetector(cfg *config.SchedulingConfig) *ConflictDetector {
	operating, err := model.ParseWindow(cfg.DayStart, cfg.DayEnd)
	if err != nil {
		operating = model.TimeWindow{Start: 8 * 60, End: 20 * 60}
	}
	return &ConflictDetector{operating: operating, maxSuggestions: cfg.MaxSuggestions}
}

// FindConflict 返回与窗口重叠的第一个预约（按开始时间、ID 排序），没有则返回 nil
// excludeID 非空时跳过该预约（修改预约时排除自身）
func (d *ConflictDetector) FindConflict(ctx context.Context, appointments repository.AppointmentRepository,
	placeID string, date time.Time, window model.TimeWindow, excludeID string) (*model.Appointment, error) {

	existing, err := appointments.ListScheduledByPlaceAndDate(ctx, placeID, model.DateOnly(date))
	if err != nil {
		return nil, err
	}
	return firstConflict(existing, window, excludeID), nil
}

// Check 冲突时返回 *ConflictError（附带建议的空闲时段）
func (d *ConflictDetector) Check(ctx context.Context, appointments repository.AppointmentRepository,
	placeID string, date time.Time, window model.TimeWindow, excludeID string) error {

	existing, err := appointments.ListScheduledByPlaceAndDate(ctx, placeID, model.DateOnly(date))
	if err != nil {
		return err
	}
	hit := firstConflict(existing, window, excludeID)
	if hit == nil {
		return nil
	}

	busy := busyWindows(existing, excludeID)
	return &ConflictError{
		PlaceID:     placeID,
		Date:        model.DateOnly(date),
		Requested:   window,
		Existing:    *hit,
		Suggestions: SuggestWindows(busy, d.operating, window, d.maxSuggestions),
	}
}

// Operating 营业时段
func (d *ConflictDetector) Operating() model.TimeWindow { return d.operating }

// firstConflict 纯函数：在已有预约中找第一个与 window 重叠的
func firstConflict(existing []model.Appointment, window model.TimeWindow, excludeID string) *model.Appointment {
	candidates := make([]model.Appointment, 0, len(existing))
	for _, a := range existing {
		if a.Status != model.AppointmentScheduled {
			continue
		}
		if excludeID != "" && a.AppointmentID == excludeID {
			continue
		}
		if a.Window().Overlaps(window) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		wi, wj := candidates[i].Window(), candidates[j].Window()
		if wi.Start != wj.Start {
			return wi.Start < wj.Start
		}
		return candidates[i].AppointmentID < candidates[j].AppointmentID
	})
	return &candidates[0]
}

func busyWindows(existing []model.Appointment, excludeID string) []model.TimeWindow {
	busy := make([]model.TimeWindow, 0, len(existing))
	for _, a := range existing {
		if a.Status != model.AppointmentScheduled || (excludeID != "" && a.AppointmentID == excludeID) {
			continue
		}
		if w := a.Window(); !w.IsZero() {
			busy = append(busy, w)
		}
	}
	return busy
}

// FreeWindows 营业时段内不与任何占用重叠、且长度不小于 minDuration 的空闲区间（升序）
func FreeWindows(busy []model.TimeWindow, operating model.TimeWindow, minDuration int) []model.TimeWindow {
	sorted := make([]model.TimeWindow, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var free []model.TimeWindow
	cursor := operating.Start
	for _, b := range sorted {
		if b.End <= cursor {
			continue
		}
		if b.Start >= operating.End {
			break
		}
		if b.Start > cursor {
			gap := model.TimeWindow{Start: cursor, End: min(b.Start, operating.End)}
			if gap.Duration() >= minDuration && gap.Duration() > 0 {
				free = append(free, gap)
			}
		}
		cursor = max(cursor, b.End)
	}
	if cursor < operating.End {
		gap := model.TimeWindow{Start: cursor, End: operating.End}
		if gap.Duration() >= minDuration {
			free = append(free, gap)
		}
	}
	return free
}

// SuggestWindows 给出与 requested 等长的候选时段，按距离原开始时间由近到远排列
func SuggestWindows(busy []model.TimeWindow, operating model.TimeWindow, requested model.TimeWindow, limit int) []model.TimeWindow {
	if limit <= 0 {
		return nil
	}
	duration := requested.Duration()
	gaps := FreeWindows(busy, operating, duration)

	suggestions := make([]model.TimeWindow, 0, len(gaps))
	for _, g := range gaps {
		start := requested.Start
		if start < g.Start {
			start = g.Start
		}
		if start > g.End-duration {
			start = g.End - duration
		}
		suggestions = append(suggestions, model.TimeWindow{Start: start, End: start + duration})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		di, dj := abs(suggestions[i].Start-requested.Start), abs(suggestions[j].Start-requested.Start)
		if di != dj {
			return di < dj
		}
		return suggestions[i].Start < suggestions[j].Start
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
