package service

import (
	"time"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
)

// ── model → dto 转换 ──

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

// clockOrRaw 统一为 HH:MM；库中格式异常时原样返回
func clockOrRaw(s string) string {
	if c, err := model.NormalizeClock(s); err == nil {
		return c
	}
	return s
}

func toActivityResponse(a *model.Activity) *dto.ActivityResponse {
	resp := &dto.ActivityResponse{
		ID:           a.ActivityID,
		Name:         a.Name,
		Recurrence:   string(a.Recurrence),
		StartDate:    model.FormatDate(a.StartDate),
		Capacity:     a.Capacity,
		OwnerID:      a.OwnerID,
		Status:       string(a.Status),
		CancelReason: a.CancelReason,
		CancelledAt:  formatTimestampPtr(a.CancelledAt),
		CompletedAt:  formatTimestampPtr(a.CompletedAt),
		Version:      a.Version,
		CreatedAt:    formatTimestamp(a.CreatedAt),
		UpdatedAt:    formatTimestamp(a.UpdatedAt),
	}
	if a.EndDate != nil {
		end := model.FormatDate(*a.EndDate)
		resp.EndDate = &end
	}
	if len(a.Appointments) > 0 {
		resp.Appointments = make([]dto.AppointmentResponse, 0, len(a.Appointments))
		for i := range a.Appointments {
			resp.Appointments = append(resp.Appointments, *toAppointmentResponse(&a.Appointments[i]))
		}
	}
	return resp
}

func toAppointmentResponse(a *model.Appointment) *dto.AppointmentResponse {
	resp := &dto.AppointmentResponse{
		ID:           a.AppointmentID,
		ActivityID:   a.ActivityID,
		PlaceID:      a.PlaceID,
		Date:         model.FormatDate(a.Date),
		StartTime:    clockOrRaw(a.StartTime),
		EndTime:      clockOrRaw(a.EndTime),
		Status:       string(a.Status),
		CancelReason: a.CancelReason,
		CancelledAt:  formatTimestampPtr(a.CancelledAt),
		CreatorID:    a.CreatorID,
		Version:      a.Version,
		CreatedAt:    formatTimestamp(a.CreatedAt),
		UpdatedAt:    formatTimestamp(a.UpdatedAt),
	}
	if a.Place != nil {
		resp.Place = &dto.PlaceBrief{ID: a.Place.PlaceID, Name: a.Place.Name}
	}
	return resp
}

func toPlaceResponse(p *model.Place) *dto.PlaceResponse {
	return &dto.PlaceResponse{
		ID:        p.PlaceID,
		Name:      p.Name,
		Address:   p.Address,
		Capacity:  p.Capacity,
		IsActive:  p.IsActive,
		CreatedAt: formatTimestamp(p.CreatedAt),
		UpdatedAt: formatTimestamp(p.UpdatedAt),
	}
}

func toTimeRanges(windows []model.TimeWindow) []dto.TimeRange {
	ranges := make([]dto.TimeRange, 0, len(windows))
	for _, w := range windows {
		ranges = append(ranges, toTimeRange(w))
	}
	return ranges
}

func toTimeRange(w model.TimeWindow) dto.TimeRange {
	return dto.TimeRange{StartTime: model.FormatClock(w.Start), EndTime: model.FormatClock(w.End)}
}

// ToConflictDetail 冲突错误的对外详情
func ToConflictDetail(e *ConflictError) dto.ConflictDetail {
	return dto.ConflictDetail{
		PlaceID:               e.PlaceID,
		Date:                  model.FormatDate(e.Date),
		Requested:             toTimeRange(e.Requested),
		ConflictingID:         e.Existing.AppointmentID,
		ConflictingActivityID: e.Existing.ActivityID,
		Conflicting:           toTimeRange(e.Existing.Window()),
		Suggestions:           toTimeRanges(e.Suggestions),
	}
}
