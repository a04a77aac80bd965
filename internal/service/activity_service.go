package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// ActivityService 活动查询与维护
type ActivityService interface {
	GetByID(ctx context.Context, id string) (*dto.ActivityResponse, error)
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, error)
	UpdateDetails(ctx context.Context, id string, req *dto.UpdateActivityRequest, requesterID string) (*dto.ActivityResponse, error)
	Delete(ctx context.Context, id string, requesterID string) error
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *activityService) GetByID(ctx context.Context, id string) (*dto.ActivityResponse, error) {
	activity, err := s.repo.Activity.GetByIDWithAppointments(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "活动", id, err, ErrActivityNotFound)
	}
	return toActivityResponse(activity), nil
}

// ────────────────────── List ──────────────────────

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, error) {
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	activities, err := s.repo.Activity.List(ctx, repository.ActivityFilter{
		From:    from,
		To:      to,
		Status:  model.ActivityStatus(req.Status),
		OwnerID: req.OwnerID,
	})
	if err != nil {
		s.logger.Error("列出活动失败", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		result = append(result, *toActivityResponse(&activities[i]))
	}
	return result, nil
}

// ────────────────────── UpdateDetails ──────────────────────

func (s *activityService) UpdateDetails(ctx context.Context, id string, req *dto.UpdateActivityRequest, requesterID string) (*dto.ActivityResponse, error) {
	activity, err := s.repo.Activity.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "活动", id, err, ErrActivityNotFound)
	}
	if err := AssertOwner(activity.OwnerID, requesterID); err != nil {
		s.logger.Warn("非所有者尝试修改活动", zap.String("id", id), zap.String("requester", requesterID))
		return nil, err
	}
	if activity.IsClosed() {
		return nil, ErrActivityClosed
	}

	var v pkgerrors.Violations
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			v.Add("name", "活动名称不能为空")
		} else if utf8.RuneCountInString(name) > maxActivityNameLen {
			v.Add("name", fmt.Sprintf("活动名称不能超过 %d 个字符", maxActivityNameLen))
		}
		activity.Name = name
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			v.Add("capacity", "容量必须为正整数")
		}
		capacity := *req.Capacity
		activity.Capacity = &capacity
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	activity.UpdatedBy = &requesterID
	if err := s.repo.Activity.Update(ctx, activity); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新活动失败", zap.String("id", id), zap.Error(err))
		}
		return nil, persistenceErr(err)
	}

	return toActivityResponse(activity), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 先删除全部预约再删除活动，同一事务内完成
func (s *activityService) Delete(ctx context.Context, id string, requesterID string) error {
	activity, err := s.repo.Activity.GetByID(ctx, id)
	if err != nil {
		return mapLookupErr(s.logger, "活动", id, err, ErrActivityNotFound)
	}
	if err := AssertOwner(activity.OwnerID, requesterID); err != nil {
		s.logger.Warn("非所有者尝试删除活动", zap.String("id", id), zap.String("requester", requesterID))
		return err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Appointment.DeleteByActivity(ctx, id, requesterID); err != nil {
			return err
		}
		return tx.Activity.Delete(ctx, id, requesterID)
	})
	if err != nil {
		s.logger.Error("删除活动失败", zap.String("id", id), zap.Error(err))
		return persistenceErr(err)
	}

	s.logger.Info("活动已删除", zap.String("activity_id", id), zap.String("by", requesterID))
	return nil
}

// ── 内部辅助方法 ──

// parseDateRange 解析可选的日期区间（含两端），from 晚于 to 时报错
func parseDateRange(fromRaw, toRaw string) (*time.Time, *time.Time, error) {
	var (
		v        pkgerrors.Violations
		from, to *time.Time
	)
	if strings.TrimSpace(fromRaw) != "" {
		if d, err := model.ParseDate(fromRaw); err != nil {
			v.Add("from", "日期格式应为 YYYY-MM-DD")
		} else {
			from = &d
		}
	}
	if strings.TrimSpace(toRaw) != "" {
		if d, err := model.ParseDate(toRaw); err != nil {
			v.Add("to", "日期格式应为 YYYY-MM-DD")
		} else {
			to = &d
		}
	}
	if from != nil && to != nil && to.Before(*from) {
		v.Add("to", "结束日期不能早于开始日期")
	}
	if err := v.Err(); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
