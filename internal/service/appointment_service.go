package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// AppointmentService 预约查询与删除（创建、修改、取消分别在排期引擎与生命周期服务中）
type AppointmentService interface {
	GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error)
	List(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error)
	Delete(ctx context.Context, id string, requesterID string) error
}

type appointmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAppointmentService 创建 AppointmentService 实例
func NewAppointmentService(repo *repository.Repository, logger *zap.Logger) AppointmentService {
	return &appointmentService{repo: repo, logger: logger}
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(s.logger, "预约", id, err, ErrAppointmentNotFound)
	}
	return toAppointmentResponse(appt), nil
}

func (s *appointmentService) List(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error) {
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	appointments, err := s.repo.Appointment.List(ctx, repository.AppointmentFilter{
		From:       from,
		To:         to,
		PlaceID:    req.PlaceID,
		ActivityID: req.ActivityID,
		Status:     model.AppointmentStatus(req.Status),
	})
	if err != nil {
		s.logger.Error("列出预约失败", zap.Error(err))
		return nil, persistenceErr(err)
	}

	s.attachPlaces(ctx, appointments)

	result := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		result = append(result, *toAppointmentResponse(&appointments[i]))
	}
	return result, nil
}

// attachPlaces 批量加载预约的场地简要信息；失败时只记录日志，列表照常返回
func (s *appointmentService) attachPlaces(ctx context.Context, appointments []model.Appointment) {
	if len(appointments) == 0 {
		return
	}
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, a := range appointments {
		if !seen[a.PlaceID] {
			seen[a.PlaceID] = true
			ids = append(ids, a.PlaceID)
		}
	}

	places, err := s.repo.Place.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("加载场地信息失败", zap.Int("count", len(ids)), zap.Error(err))
		return
	}
	byID := make(map[string]*model.Place, len(places))
	for i := range places {
		byID[places[i].PlaceID] = &places[i]
	}
	for i := range appointments {
		if p, ok := byID[appointments[i].PlaceID]; ok {
			appointments[i].Place = p
		}
	}
}

// Delete 仅预约创建者可删除；所属活动已关闭时拒绝
func (s *appointmentService) Delete(ctx context.Context, id string, requesterID string) error {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		return mapLookupErr(s.logger, "预约", id, err, ErrAppointmentNotFound)
	}
	if err := AssertOwner(appt.CreatorID, requesterID); err != nil {
		s.logger.Warn("非创建者尝试删除预约", zap.String("id", id), zap.String("requester", requesterID))
		return err
	}

	err = runInTx(ctx, s.repo, 0, s.logger, func(tx *repository.Repository) error {
		if err := lockOpenActivity(ctx, tx, appt.ActivityID); err != nil {
			return err
		}
		return tx.Appointment.Delete(ctx, id, requesterID)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindPersistence {
			s.logger.Error("删除预约失败", zap.String("id", id), zap.Error(err))
		}
		return persistenceErr(err)
	}
	return nil
}
