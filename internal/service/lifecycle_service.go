package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// ErrReasonRequired 取消原因为空
var ErrReasonRequired = pkgerrors.NewValidationError(pkgerrors.FieldViolation{Field: "reason", Message: "取消原因不能为空"})

// LifecycleService 活动与预约的状态流转
//
//	活动: scheduled → cancelled | completed（均为终态）
//	预约: scheduled → cancelled（终态）
type LifecycleService interface {
	// CancelActivity 取消活动，并以同一原因取消其所有仍为 scheduled 的预约
	CancelActivity(ctx context.Context, id, reason, requesterID string) (*dto.CancelActivityResponse, error)
	// CancelAppointment 单独取消一个预约，不影响所属活动的状态
	CancelAppointment(ctx context.Context, id, reason, requesterID string) (*dto.AppointmentResponse, error)
	// CompleteActivity 活动所有者手动标记完成
	CompleteActivity(ctx context.Context, id, requesterID string) (*dto.ActivityResponse, error)
	// CompleteExpired 将最后一天早于 asOf 的 scheduled 活动标记为完成，返回被完成的活动 ID
	CompleteExpired(ctx context.Context, asOf time.Time) ([]string, error)
}

type lifecycleService struct {
	repo    *repository.Repository
	events  EventPublisher
	retries int
	logger  *zap.Logger
	now     func() time.Time
}

// NewLifecycleService 创建 LifecycleService 实例
func NewLifecycleService(cfg *config.SchedulingConfig, repo *repository.Repository, events EventPublisher, logger *zap.Logger) LifecycleService {
	return &lifecycleService{
		repo:    repo,
		events:  events,
		retries: cfg.LockRetries,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── CancelActivity ──────────────────────

func (s *lifecycleService) CancelActivity(ctx context.Context, id, reason, requesterID string) (*dto.CancelActivityResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var (
		activity  *model.Activity
		cascaded  int64
		cancelled = s.now()
	)
	err := runInTx(ctx, s.repo, s.retries, s.logger, func(tx *repository.Repository) error {
		var err error
		activity, err = tx.Activity.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrActivityNotFound)
		}
		if err := AssertOwner(activity.OwnerID, requesterID); err != nil {
			return err
		}
		if activity.IsClosed() {
			return ErrActivityClosed
		}

		activity.Status = model.ActivityCancelled
		activity.CancelReason = &reason
		activity.CancelledAt = &cancelled
		activity.UpdatedBy = &requesterID
		if err := tx.Activity.Update(ctx, activity); err != nil {
			return err
		}

		cascaded, err = tx.Appointment.CancelScheduledByActivity(ctx, id, reason, requesterID, cancelled)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("非所有者尝试取消活动", zap.String("id", id), zap.String("requester", requesterID))
		} else if pkgerrors.KindOf(err) == pkgerrors.KindPersistence {
			s.logger.Error("取消活动失败", zap.String("id", id), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	publishEvent(ctx, s.events, s.logger, EventActivityCancelled, ActivityEvent{
		ActivityID: activity.ActivityID,
		Name:       activity.Name,
		OwnerID:    activity.OwnerID,
		Status:     string(activity.Status),
		Reason:     reason,
		ActorID:    requesterID,
	})

	s.logger.Info("活动已取消",
		zap.String("activity_id", id),
		zap.Int64("cancelled_appointments", cascaded),
	)

	return &dto.CancelActivityResponse{
		Activity:              *toActivityResponse(activity),
		CancelledAppointments: cascaded,
	}, nil
}

// ────────────────────── CancelAppointment ──────────────────────

func (s *lifecycleService) CancelAppointment(ctx context.Context, id, reason, requesterID string) (*dto.AppointmentResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var appt *model.Appointment
	err := runInTx(ctx, s.repo, s.retries, s.logger, func(tx *repository.Repository) error {
		var err error
		appt, err = tx.Appointment.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrAppointmentNotFound)
		}
		// 只认预约创建者，与活动所有者无关
		if err := AssertOwner(appt.CreatorID, requesterID); err != nil {
			return err
		}
		if appt.Status == model.AppointmentCancelled {
			return ErrAppointmentClosed
		}
		if err := lockOpenActivity(ctx, tx, appt.ActivityID); err != nil {
			return err
		}

		cancelled := s.now()
		appt.Status = model.AppointmentCancelled
		appt.CancelReason = &reason
		appt.CancelledAt = &cancelled
		appt.UpdatedBy = &requesterID
		return tx.Appointment.Update(ctx, appt)
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("非创建者尝试取消预约", zap.String("id", id), zap.String("requester", requesterID))
		} else if pkgerrors.KindOf(err) == pkgerrors.KindPersistence {
			s.logger.Error("取消预约失败", zap.String("id", id), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	publishEvent(ctx, s.events, s.logger, EventAppointmentCancelled, appointmentEvent(appt, requesterID))

	return toAppointmentResponse(appt), nil
}

// ────────────────────── CompleteActivity ──────────────────────

func (s *lifecycleService) CompleteActivity(ctx context.Context, id, requesterID string) (*dto.ActivityResponse, error) {
	activity, err := s.repo.Activity.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "活动", id, err, ErrActivityNotFound)
	}
	if err := AssertOwner(activity.OwnerID, requesterID); err != nil {
		return nil, err
	}
	if activity.IsClosed() {
		return nil, ErrActivityClosed
	}

	if err := s.complete(ctx, activity, requesterID); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("完成活动失败", zap.String("id", id), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	return toActivityResponse(activity), nil
}

// ────────────────────── CompleteExpired ──────────────────────

func (s *lifecycleService) CompleteExpired(ctx context.Context, asOf time.Time) ([]string, error) {
	asOf = model.DateOnly(asOf)
	expired, err := s.repo.Activity.ListExpired(ctx, asOf)
	if err != nil {
		s.logger.Error("查询过期活动失败", zap.Error(err))
		return nil, persistenceErr(err)
	}

	completed := make([]string, 0, len(expired))
	for i := range expired {
		activity := &expired[i]
		if activity.Status != model.ActivityScheduled || !activity.LastDate().Before(asOf) {
			continue
		}
		if err := s.complete(ctx, activity, ""); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				// 并发被取消或修改，下一轮再处理
				s.logger.Info("活动已被并发修改，跳过", zap.String("activity_id", activity.ActivityID))
				continue
			}
			s.logger.Error("自动完成活动失败", zap.String("activity_id", activity.ActivityID), zap.Error(err))
			return completed, persistenceErr(err)
		}
		completed = append(completed, activity.ActivityID)
	}

	if len(completed) > 0 {
		s.logger.Info("过期活动已自动完成",
			zap.String("as_of", model.FormatDate(asOf)),
			zap.Int("count", len(completed)),
		)
	}
	return completed, nil
}

// complete 状态置为 completed 并发布事件；actorID 为空表示系统触发
func (s *lifecycleService) complete(ctx context.Context, activity *model.Activity, actorID string) error {
	now := s.now()
	activity.Status = model.ActivityCompleted
	activity.CompletedAt = &now
	if actorID != "" {
		activity.UpdatedBy = &actorID
	}
	if err := s.repo.Activity.Update(ctx, activity); err != nil {
		return err
	}

	publishEvent(ctx, s.events, s.logger, EventActivityCompleted, ActivityEvent{
		ActivityID: activity.ActivityID,
		Name:       activity.Name,
		OwnerID:    activity.OwnerID,
		Status:     string(activity.Status),
		ActorID:    actorID,
	})
	return nil
}
