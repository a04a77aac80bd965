package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/service"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/response"
)

// ActivityHandler 活动模块 HTTP 处理器
type ActivityHandler struct {
	schedulingSvc service.SchedulingService
	activitySvc   service.ActivityService
	lifecycleSvc  service.LifecycleService
	calendarSvc   service.CalendarService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(
	schedulingSvc service.SchedulingService,
	activitySvc service.ActivityService,
	lifecycleSvc service.LifecycleService,
	calendarSvc service.CalendarService,
) *ActivityHandler {
	return &ActivityHandler{
		schedulingSvc: schedulingSvc,
		activitySvc:   activitySvc,
		lifecycleSvc:  lifecycleSvc,
		calendarSvc:   calendarSvc,
	}
}

// CreateActivity 创建活动并展开全部预约
// POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	activity, err := h.schedulingSvc.CreateActivity(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, activity)
}

// ListActivities 活动列表
// GET /api/v1/activities?from=&to=&status=&owner_id=
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c)
		return
	}

	activities, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": activities})
}

// GetActivity 活动详情（含预约）
// GET /api/v1/activities/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	activity, err := h.activitySvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, activity)
}

// UpdateActivity 修改活动名称或容量
// PUT /api/v1/activities/:id
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	var req dto.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	activity, err := h.activitySvc.UpdateDetails(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, activity)
}

// DeleteActivity 删除活动及其预约
// DELETE /api/v1/activities/:id
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.activitySvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// CancelActivity 取消活动（级联取消其 scheduled 预约）
// POST /api/v1/activities/:id/cancel
func (h *ActivityHandler) CancelActivity(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
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

	result, err := h.lifecycleSvc.CancelActivity(c.Request.Context(), id, req.Reason, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// CompleteActivity 手动标记活动完成
// POST /api/v1/activities/:id/complete
func (h *ActivityHandler) CompleteActivity(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	activity, err := h.lifecycleSvc.CompleteActivity(c.Request.Context(), id, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, activity)
}

// CompleteExpired 批量完成已过最后一天的活动，as_of 缺省为当天（UTC）
// POST /api/v1/activities/complete-expired
func (h *ActivityHandler) CompleteExpired(c *gin.Context) {
	var req dto.CompleteExpiredRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c)
		return
	}

	asOf := model.DateOnly(time.Now().UTC())
	if strings.TrimSpace(req.AsOf) != "" {
		d, err := model.ParseDate(req.AsOf)
		if err != nil {
			fieldError(c, "as_of", "日期格式应为 YYYY-MM-DD")
			return
		}
		asOf = d
	}

	completed, err := h.lifecycleSvc.CompleteExpired(c.Request.Context(), asOf)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.CompleteExpiredResponse{
		AsOf:      model.FormatDate(asOf),
		Completed: completed,
	})
}

// ExportCalendar 导出活动日历（iCalendar）
// GET /api/v1/activities/:id/calendar.ics
func (h *ActivityHandler) ExportCalendar(c *gin.Context) {
	id, ok := requireParam(c, "id", "活动ID不能为空")
	if !ok {
		return
	}

	body, err := h.calendarSvc.ExportActivity(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="activity-%s.ics"`, id))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
