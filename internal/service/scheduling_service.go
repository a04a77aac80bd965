package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

const (
	// defaultAvailabilityDuration 空闲时段查询未指定时长时的默认值（分钟）
	defaultAvailabilityDuration = 60
	maxActivityNameLen          = 200
)

// SchedulingService 排期引擎：展开、冲突检测与原子落库
type SchedulingService interface {
	// CreateActivity 创建活动并一次性写入其全部预约，任何一天冲突则整体失败
	CreateActivity(ctx context.Context, req *dto.CreateActivityRequest, requesterID string) (*dto.ActivityResponse, error)
	// CreateAppointment 为已有活动追加单个预约
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest, requesterID string) (*dto.AppointmentResponse, error)
	// UpdateAppointment 修改预约的场地、日期或时间，变更时重新做冲突检测（排除自身）
	UpdateAppointment(ctx context.Context, id string, req *dto.UpdateAppointmentRequest, requesterID string) (*dto.AppointmentResponse, error)
	// Availability 场地某天的占用与空闲时段
	Availability(ctx context.Context, placeID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type schedulingService struct {
	repo     *repository.Repository
	detector *ConflictDetector
	events   EventPublisher
	cfg      config.SchedulingConfig
	logger   *zap.Logger
}

// NewSchedulingService 创建 SchedulingService 实例
func NewSchedulingService(cfg *config.SchedulingConfig, repo *repository.Repository, events EventPublisher, logger *zap.Logger) SchedulingService {
	return &schedulingService{
		repo:     repo,
		detector: NewConflictDetector(cfg),
		events:   events,
		cfg:      *cfg,
		logger:   logger,
	}
}

// activityDraft 校验通过后的创建参数
type activityDraft struct {
	name       string
	recurrence model.RecurrenceKind
	startDate  time.Time
	endDate    *time.Time
	capacity   *int
	placeID    string
	window     model.TimeWindow
}

// ────────────────────── CreateActivity ──────────────────────

func (s *schedulingService) CreateActivity(ctx context.Context, req *dto.CreateActivityRequest, requesterID string) (*dto.ActivityResponse, error) {
	draft, err := validateActivityDraft(req)
	if err != nil {
		return nil, err
	}

	seq, err := ExpandRecurrence(draft.startDate, draft.endDate, draft.recurrence, s.cfg.MaxOccurrences)
	if err != nil {
		return nil, err
	}
	dates := seq.All()

	if err := s.ensurePlaceBookable(ctx, draft.placeID); err != nil {
		return nil, err
	}

	activity := &model.Activity{
		ActivityID: uuid.NewString(),
		Name:       draft.name,
		Recurrence: draft.recurrence,
		StartDate:  draft.startDate,
		EndDate:    draft.endDate,
		Capacity:   draft.capacity,
		OwnerID:    requesterID,
		Status:     model.ActivityScheduled,
	}
	activity.CreatedBy = &requesterID
	activity.UpdatedBy = &requesterID
	activity.Version = 1

	appointments := make([]model.Appointment, 0, len(dates))
	for _, date := range dates {
		appt := model.Appointment{
			AppointmentID: uuid.NewString(),
			ActivityID:    activity.ActivityID,
			PlaceID:       draft.placeID,
			Date:          date,
			StartTime:     model.FormatClock(draft.window.Start),
			EndTime:       model.FormatClock(draft.window.End),
			Status:        model.AppointmentScheduled,
			CreatorID:     requesterID,
		}
		appt.CreatedBy = &requesterID
		appt.UpdatedBy = &requesterID
		appt.Version = 1
		appointments = append(appointments, appt)
	}

	err = runInTx(ctx, s.repo, s.cfg.LockRetries, s.logger, func(tx *repository.Repository) error {
		if err := lockPlaceDates(ctx, tx, draft.placeID, dates); err != nil {
			return err
		}
		for _, date := range dates {
			if err := s.detector.Check(ctx, tx.Appointment, draft.placeID, date, draft.window, ""); err != nil {
				return err
			}
		}
		if err := tx.Activity.Create(ctx, activity); err != nil {
			return err
		}
		return tx.Appointment.BatchCreate(ctx, appointments)
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("创建活动冲突",
				zap.String("place_id", draft.placeID),
				zap.String("date", model.FormatDate(conflict.Date)),
				zap.String("conflicting_id", conflict.Existing.AppointmentID),
			)
			return nil, conflict
		}
		s.logger.Error("创建活动失败", zap.String("place_id", draft.placeID), zap.Error(err))
		return nil, persistenceErr(err)
	}

	activity.Appointments = appointments

	ids := make([]string, 0, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.AppointmentID)
	}
	publishEvent(ctx, s.events, s.logger, EventActivityCreated, ActivityEvent{
		ActivityID:     activity.ActivityID,
		Name:           activity.Name,
		OwnerID:        activity.OwnerID,
		Status:         string(activity.Status),
		AppointmentIDs: ids,
		ActorID:        requesterID,
	})

	s.logger.Info("活动创建成功",
		zap.String("activity_id", activity.ActivityID),
		zap.String("recurrence", string(activity.Recurrence)),
		zap.Int("appointments", len(appointments)),
	)

	return toActivityResponse(activity), nil
}

// ────────────────────── CreateAppointment ──────────────────────

func (s *schedulingService) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest, requesterID string) (*dto.AppointmentResponse, error) {
	var v pkgerrors.Violations
	if strings.TrimSpace(req.ActivityID) == "" {
		v.Add("activity_id", "活动ID不能为空")
	}
	if strings.TrimSpace(req.PlaceID) == "" {
		v.Add("place_id", "场地ID不能为空")
	}
	date, ok := parseRequiredDate(&v, "date", req.Date)
	window, wok := parseWindowFields(&v, req.StartTime, req.EndTime)
	if err := v.Err(); err != nil || !ok || !wok {
		return nil, err
	}

	activity, err := s.repo.Activity.GetByID(ctx, req.ActivityID)
	if err != nil {
		return nil, mapLookupErr(s.logger, "活动", req.ActivityID, err, ErrActivityNotFound)
	}
	if activity.IsClosed() {
		return nil, ErrActivityClosed
	}

	if err := s.ensurePlaceBookable(ctx, req.PlaceID); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		AppointmentID: uuid.NewString(),
		ActivityID:    activity.ActivityID,
		PlaceID:       req.PlaceID,
		Date:          date,
		StartTime:     model.FormatClock(window.Start),
		EndTime:       model.FormatClock(window.End),
		Status:        model.AppointmentScheduled,
		CreatorID:     requesterID,
	}
	appt.CreatedBy = &requesterID
	appt.UpdatedBy = &requesterID
	appt.Version = 1

	err = runInTx(ctx, s.repo, s.cfg.LockRetries, s.logger, func(tx *repository.Repository) error {
		if err := tx.Lock.LockPlaceDate(ctx, appt.PlaceID, appt.Date); err != nil {
			return err
		}
		// 加锁后重新确认，活动可能已被并发取消
		if err := lockOpenActivity(ctx, tx, appt.ActivityID); err != nil {
			return err
		}
		if err := s.detector.Check(ctx, tx.Appointment, appt.PlaceID, appt.Date, window, ""); err != nil {
			return err
		}
		return tx.Appointment.BatchCreate(ctx, []model.Appointment{*appt})
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindPersistence {
			s.logger.Error("创建预约失败", zap.String("activity_id", activity.ActivityID), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	publishEvent(ctx, s.events, s.logger, EventAppointmentCreated, appointmentEvent(appt, requesterID))

	return toAppointmentResponse(appt), nil
}

// ────────────────────── UpdateAppointment ──────────────────────

func (s *schedulingService) UpdateAppointment(ctx context.Context, id string, req *dto.UpdateAppointmentRequest, requesterID string) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "预约", id, err, ErrAppointmentNotFound)
	}
	if err := AssertOwner(appt.CreatorID, requesterID); err != nil {
		s.logger.Warn("非创建者尝试修改预约", zap.String("id", id), zap.String("requester", requesterID))
		return nil, err
	}
	if appt.Status == model.AppointmentCancelled {
		return nil, ErrAppointmentClosed
	}
	activity, err := s.repo.Activity.GetByID(ctx, appt.ActivityID)
	if err != nil {
		return nil, mapLookupErr(s.logger, "活动", appt.ActivityID, err, ErrActivityNotFound)
	}
	if activity.IsClosed() {
		return nil, ErrActivityClosed
	}
	if req.Version != nil && *req.Version != appt.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	// 未提供的字段沿用原值，再整体校验
	placeID := appt.PlaceID
	dateRaw := model.FormatDate(appt.Date)
	startRaw, endRaw := appt.StartTime, appt.EndTime
	var v pkgerrors.Violations
	if req.PlaceID != nil {
		if strings.TrimSpace(*req.PlaceID) == "" {
			v.Add("place_id", "场地ID不能为空")
		}
		placeID = *req.PlaceID
	}
	if req.Date != nil {
		dateRaw = *req.Date
	}
	if req.StartTime != nil {
		startRaw = *req.StartTime
	}
	if req.EndTime != nil {
		endRaw = *req.EndTime
	}
	date, ok := parseRequiredDate(&v, "date", dateRaw)
	window, wok := parseWindowFields(&v, startRaw, endRaw)
	if err := v.Err(); err != nil || !ok || !wok {
		return nil, err
	}

	changed := placeID != appt.PlaceID || !date.Equal(model.DateOnly(appt.Date)) || window != appt.Window()
	if !changed {
		return toAppointmentResponse(appt), nil
	}

	if placeID != appt.PlaceID {
		if err := s.ensurePlaceBookable(ctx, placeID); err != nil {
			return nil, err
		}
	}

	appt.PlaceID = placeID
	appt.Date = date
	appt.StartTime = model.FormatClock(window.Start)
	appt.EndTime = model.FormatClock(window.End)
	appt.UpdatedBy = &requesterID

	err = runInTx(ctx, s.repo, s.cfg.LockRetries, s.logger, func(tx *repository.Repository) error {
		if err := tx.Lock.LockPlaceDate(ctx, appt.PlaceID, appt.Date); err != nil {
			return err
		}
		if err := lockOpenActivity(ctx, tx, appt.ActivityID); err != nil {
			return err
		}
		if err := s.detector.Check(ctx, tx.Appointment, appt.PlaceID, appt.Date, window, appt.AppointmentID); err != nil {
			return err
		}
		return tx.Appointment.Update(ctx, appt)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindPersistence && !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("修改预约失败", zap.String("id", id), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	publishEvent(ctx, s.events, s.logger, EventAppointmentUpdated, appointmentEvent(appt, requesterID))

	return toAppointmentResponse(appt), nil
}

// ────────────────────── Availability ──────────────────────

func (s *schedulingService) Availability(ctx context.Context, placeID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	var v pkgerrors.Violations
	date, ok := parseRequiredDate(&v, "date", req.Date)
	if err := v.Err(); err != nil || !ok {
		return nil, err
	}
	if _, err := s.repo.Place.GetByID(ctx, placeID); err != nil {
		return nil, mapLookupErr(s.logger, "场地", placeID, err, ErrPlaceNotFound)
	}

	existing, err := s.repo.Appointment.ListScheduledByPlaceAndDate(ctx, placeID, date)
	if err != nil {
		s.logger.Error("查询场地占用失败", zap.String("place_id", placeID), zap.Error(err))
		return nil, persistenceErr(err)
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = defaultAvailabilityDuration
	}
	busy := busyWindows(existing, "")
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })

	return &dto.AvailabilityResponse{
		PlaceID: placeID,
		Date:    model.FormatDate(date),
		Busy:    toTimeRanges(busy),
		Free:    toTimeRanges(FreeWindows(busy, s.detector.Operating(), duration)),
	}, nil
}

// ── 内部辅助方法 ──

// ensurePlaceBookable 场地必须存在且处于启用状态
func (s *schedulingService) ensurePlaceBookable(ctx context.Context, placeID string) error {
	place, err := s.repo.Place.GetByID(ctx, placeID)
	if err != nil {
		return mapLookupErr(s.logger, "场地", placeID, err, ErrPlaceNotFound)
	}
	if !place.IsActive {
		return pkgerrors.NewValidationError(pkgerrors.FieldViolation{Field: "place_id", Message: "场地已停用"})
	}
	return nil
}

// lockPlaceDates 按日期升序逐个获取 (场地, 日期) 咨询锁，固定顺序避免死锁
func lockPlaceDates(ctx context.Context, tx *repository.Repository, placeID string, dates []time.Time) error {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var last time.Time
	for i, d := range sorted {
		if i > 0 && d.Equal(last) {
			continue
		}
		if err := tx.Lock.LockPlaceDate(ctx, placeID, d); err != nil {
			return err
		}
		last = d
	}
	return nil
}

// validateActivityDraft 一次性收集所有字段错误
func validateActivityDraft(req *dto.CreateActivityRequest) (*activityDraft, error) {
	var v pkgerrors.Violations
	draft := &activityDraft{}

	draft.name = strings.TrimSpace(req.Name)
	if draft.name == "" {
		v.Add("name", "活动名称不能为空")
	} else if utf8.RuneCountInString(draft.name) > maxActivityNameLen {
		v.Add("name", fmt.Sprintf("活动名称不能超过 %d 个字符", maxActivityNameLen))
	}

	if strings.TrimSpace(req.Recurrence) == "" {
		v.Add("recurrence", "重复方式不能为空")
	} else if kind, ok := model.ParseRecurrenceKind(req.Recurrence); ok {
		draft.recurrence = kind
	} else {
		v.Add("recurrence", "不支持的重复方式: "+req.Recurrence)
	}

	var startOK bool
	draft.startDate, startOK = parseRequiredDate(&v, "start_date", req.StartDate)
	endOK := true
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		if end, err := model.ParseDate(*req.EndDate); err != nil {
			v.Add("end_date", "日期格式应为 YYYY-MM-DD")
			endOK = false
		} else {
			draft.endDate = &end
		}
	}

	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			v.Add("capacity", "容量必须为正整数")
		} else {
			capacity := *req.Capacity
			draft.capacity = &capacity
		}
	}

	draft.placeID = strings.TrimSpace(req.PlaceID)
	if draft.placeID == "" {
		v.Add("place_id", "场地ID不能为空")
	}

	draft.window, _ = parseWindowFields(&v, req.StartTime, req.EndTime)

	if v.Empty() {
		// 只有范围问题时交给 ExpandRecurrence，按 InvalidRecurrence 返回
		return draft, nil
	}
	if startOK && endOK && draft.recurrence.Valid() {
		v = append(v, recurrenceViolations(draft.startDate, draft.endDate, draft.recurrence)...)
	}
	return nil, v.Err()
}

// parseRequiredDate 解析必填日期，失败时记录字段错误
func parseRequiredDate(v *pkgerrors.Violations, field, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		v.Add(field, "日期不能为空")
		return time.Time{}, false
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		v.Add(field, "日期格式应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// parseWindowFields 解析起止时间；格式错误记在各自字段，顺序错误记在 end_time
func parseWindowFields(v *pkgerrors.Violations, startRaw, endRaw string) (model.TimeWindow, bool) {
	start, startErr := model.ParseClock(startRaw)
	if startErr != nil {
		v.Add("start_time", "时间格式应为 HH:MM")
	}
	end, endErr := model.ParseClock(endRaw)
	if endErr != nil {
		v.Add("end_time", "时间格式应为 HH:MM")
	}
	if startErr != nil || endErr != nil {
		return model.TimeWindow{}, false
	}
	if start >= end {
		v.Add("end_time", "结束时间必须晚于开始时间")
		return model.TimeWindow{}, false
	}
	return model.TimeWindow{Start: start, End: end}, true
}

func appointmentEvent(a *model.Appointment, actorID string) AppointmentEvent {
	ev := AppointmentEvent{
		AppointmentID: a.AppointmentID,
		ActivityID:    a.ActivityID,
		PlaceID:       a.PlaceID,
		Date:          model.FormatDate(a.Date),
		StartTime:     clockOrRaw(a.StartTime),
		EndTime:       clockOrRaw(a.EndTime),
		Status:        string(a.Status),
		ActorID:       actorID,
	}
	if a.CancelReason != nil {
		ev.Reason = *a.CancelReason
	}
	return ev
}
