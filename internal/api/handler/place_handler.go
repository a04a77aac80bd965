package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/response"
)

// PlaceHandler 场地模块 HTTP 处理器（只读）
type PlaceHandler struct {
	placeSvc      service.PlaceService
	schedulingSvc service.SchedulingService
}

// NewPlaceHandler 创建 PlaceHandler
func NewPlaceHandler(placeSvc service.PlaceService, schedulingSvc service.SchedulingService) *PlaceHandler {
	return &PlaceHandler{placeSvc: placeSvc, schedulingSvc: schedulingSvc}
}

// ListPlaces 场地列表
// GET /api/v1/places
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	var req dto.PlaceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c)
		return
	}

	places, err := h.placeSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": places})
}

// GetPlace 场地详情
// GET /api/v1/places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	id, ok := requireParam(c, "id", "场地ID不能为空")
	if !ok {
		return
	}

	place, err := h.placeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, place)
}

// GetAvailability 场地某天的占用与空闲时段
// GET /api/v1/places/:id/availability?date=&duration_minutes=
func (h *PlaceHandler) GetAvailability(c *gin.Context) {
	id, ok := requireParam(c, "id", "场地ID不能为空")
	if !ok {
		return
	}

	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c)
		return
	}

	availability, err := h.schedulingSvc.Availability(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, availability)
}
