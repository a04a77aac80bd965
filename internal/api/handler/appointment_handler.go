package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/response"
)

// AppointmentHandler 预约模块 HTTP 处理器
type AppointmentHandler struct {
	schedulingSvc  service.SchedulingService
	appointmentSvc service.AppointmentService
	lifecycleSvc   service.LifecycleService
}

// NewAppointmentHandler 创建 AppointmentHandler
func NewAppointmentHandler(
	schedulingSvc service.SchedulingService,
	appointmentSvc service.AppointmentService,
	lifecycleSvc service.LifecycleService,
) *AppointmentHandler {
	return &AppointmentHandler{
		schedulingSvc:  schedulingSvc,
		appointmentSvc: appointmentSvc,
		lifecycleSvc:   lifecycleSvc,
	}
}

// CreateAppointment 为已有活动追加预约
// POST /api/v1/appointments
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	appt, err := h.schedulingSvc.CreateAppointment(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, appt)
}

// ListAppointments 预约列表
// GET /api/v1/appointments?from=&to=&place_id=&activity_id=&status=
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	var req dto.AppointmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c)
		return
	}

	list, err := h.appointmentSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetAppointment 预约详情
// GET /api/v1/appointments/:id
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	id, ok := requireParam(c, "id", "预约ID不能为空")
	if !ok {
		return
	}

	appt, err := h.appointmentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, appt)
}

// UpdateAppointment 修改预约场地/日期/时间
// PUT /api/v1/appointments/:id
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id, ok := requireParam(c, "id", "预约ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	appt, err := h.schedulingSvc.UpdateAppointment(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, appt)
}

// DeleteAppointment 删除预约
// DELETE /api/v1/appointments/:id
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id, ok := requireParam(c, "id", "预约ID不能为空")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.appointmentSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// CancelAppointment 取消单个预约
// POST /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	id, ok := requireParam(c, "id", "预约ID不能为空")
	if !ok {
		return
	}

	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	appt, err := h.lifecycleSvc.CancelAppointment(c.Request.Context(), id, req.Reason, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, appt)
}
