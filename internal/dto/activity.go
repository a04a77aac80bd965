package dto

// ── 活动模块 DTO ──
// 日期为 YYYY-MM-DD，时间为 HH:MM；语义校验在 service 层统一完成并一次性返回所有字段错误

// CreateActivityRequest 创建活动（同时按重复规则展开全部预约）
type CreateActivityRequest struct {
	Name       string  `json:"name"`
	Recurrence string  `json:"recurrence"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date"`
	Capacity   *int    `json:"capacity"`
	PlaceID    string  `json:"place_id"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
}

// UpdateActivityRequest 修改活动基本信息（不影响已展开的预约）
type UpdateActivityRequest struct {
	Name     *string `json:"name"`
	Capacity *int    `json:"capacity"`
}

// CancelRequest 取消活动 / 预约
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ActivityListRequest 活动列表查询参数
type ActivityListRequest struct {
	From    string `form:"from"`
	To      string `form:"to"`
	Status  string `form:"status"   binding:"omitempty,oneof=scheduled cancelled completed"`
	OwnerID string `form:"owner_id" binding:"omitempty,max=64"`
}

// CompleteExpiredRequest 批量完成过期活动
type CompleteExpiredRequest struct {
	AsOf string `json:"as_of"`
}

// ── 响应 ──

// ActivityResponse 活动响应
type ActivityResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Recurrence   string                `json:"recurrence"`
	StartDate    string                `json:"start_date"`
	EndDate      *string               `json:"end_date,omitempty"`
	Capacity     *int                  `json:"capacity,omitempty"`
	OwnerID      string                `json:"owner_id"`
	Status       string                `json:"status"`
	CancelReason *string               `json:"cancel_reason,omitempty"`
	CancelledAt  *string               `json:"cancelled_at,omitempty"`
	CompletedAt  *string               `json:"completed_at,omitempty"`
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

// CancelActivityResponse 取消活动响应
type CancelActivityResponse struct {
	Activity              ActivityResponse `json:"activity"`
	CancelledAppointments int64            `json:"cancelled_appointments"`
}

// CompleteExpiredResponse 批量完成结果
type CompleteExpiredResponse struct {
	AsOf      string   `json:"as_of"`
	Completed []string `json:"completed"`
}
