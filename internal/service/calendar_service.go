package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
)

const calendarProductID = "-//centro-vinculacion//agenda//ES"

// CalendarService 活动日历导出（iCalendar）
type CalendarService interface {
	// ExportActivity 每个 scheduled 预约生成一个 VEVENT，UID 为预约 ID
	ExportActivity(ctx context.Context, activityID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(cfg *config.SchedulingConfig, repo *repository.Repository, logger *zap.Logger) CalendarService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &calendarService{repo: repo, loc: loc, logger: logger}
}

func (s *calendarService) ExportActivity(ctx context.Context, activityID string) (string, error) {
	activity, err := s.repo.Activity.GetByID(ctx, activityID)
	if err != nil {
		return "", mapLookupErr(s.logger, "活动", activityID, err, ErrActivityNotFound)
	}

	appointments, err := s.repo.Appointment.ListByActivity(ctx, activityID)
	if err != nil {
		s.logger.Error("查询活动预约失败", zap.String("activity_id", activityID), zap.Error(err))
		return "", persistenceErr(err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(activity.Name)

	stamp := time.Now().UTC()
	for i := range appointments {
		appt := &appointments[i]
		if appt.Status != model.AppointmentScheduled {
			continue
		}
		window := appt.Window()
		if window.IsZero() {
			s.logger.Warn("预约时间格式异常，跳过导出", zap.String("appointment_id", appt.AppointmentID))
			continue
		}

		event := cal.AddEvent(appt.AppointmentID)
		event.SetDtStampTime(stamp)
		event.SetCreatedTime(appt.CreatedAt)
		event.SetModifiedAt(appt.UpdatedAt)
		event.SetStartAt(s.at(appt.Date, window.Start))
		event.SetEndAt(s.at(appt.Date, window.End))
		event.SetSummary(activity.Name)
		if appt.Place != nil {
			event.SetLocation(appt.Place.Name)
		}
		event.SetDescription(fmt.Sprintf("activity=%s recurrence=%s", activity.ActivityID, activity.Recurrence))
	}

	return cal.Serialize(), nil
}

// at 预约日期 + 分钟数，按配置时区解释后转为 UTC
func (s *calendarService) at(date time.Time, minutes int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, s.loc).UTC()
}
