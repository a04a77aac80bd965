package handler

import "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Activity    *ActivityHandler
	Appointment *AppointmentHandler
	Place       *PlaceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Activity:    NewActivityHandler(svc.Scheduling, svc.Activity, svc.Lifecycle, svc.Calendar),
		Appointment: NewAppointmentHandler(svc.Scheduling, svc.Appointment, svc.Lifecycle),
		Place:       NewPlaceHandler(svc.Place, svc.Scheduling),
	}
}
