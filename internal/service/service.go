package service

import (
	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Scheduling  SchedulingService
	Lifecycle   LifecycleService
	Activity    ActivityService
	Appointment AppointmentService
	Place       PlaceService
	Calendar    CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	events EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		Scheduling:  NewSchedulingService(&cfg.Scheduling, repo, events, logger.Named("scheduling")),
		Lifecycle:   NewLifecycleService(&cfg.Scheduling, repo, events, logger.Named("lifecycle")),
		Activity:    NewActivityService(repo, logger),
		Appointment: NewAppointmentService(repo, logger),
		Place:       NewPlaceService(repo, logger),
		Calendar:    NewCalendarService(&cfg.Scheduling, repo, logger),
	}
}
