package dto

// ── 预约模块 DTO ──

// CreateAppointmentRequest 为已有活动追加单个预约
type CreateAppointmentRequest struct {
	ActivityID string `json:"activity_id"`
	PlaceID    string `json:"place_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// UpdateAppointmentRequest 修改预约；未提供的字段保持不变
type UpdateAppointmentRequest struct {
	PlaceID   *string `json:"place_id"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Version   *int    `json:"version"`
}

// AppointmentListRequest 预约列表查询参数（日期区间含两端）
type AppointmentListRequest struct {
	From       string `form:"from"`
	To         string `form:"to"`
	PlaceID    string `form:"place_id"`
	ActivityID string `form:"activity_id"`
	Status     string `form:"status" binding:"omitempty,oneof=scheduled cancelled"`
}

// ── 响应 ──

// AppointmentResponse 预约响应
type AppointmentResponse struct {
	ID           string      `json:"id"`
	ActivityID   string      `json:"activity_id"`
	PlaceID      string      `json:"place_id"`
	Place        *PlaceBrief `json:"place,omitempty"`
	Date         string      `json:"date"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	Status       string      `json:"status"`
	CancelReason *string     `json:"cancel_reason,omitempty"`
	CancelledAt  *string     `json:"cancelled_at,omitempty"`
	CreatorID    string      `json:"creator_id"`
	Version      int         `json:"version"`
	CreatedAt    string      `json:"created_at"`
	UpdatedAt    string      `json:"updated_at"`
}
