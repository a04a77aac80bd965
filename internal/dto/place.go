package dto

// ── 场地模块 DTO ──

// PlaceListRequest 场地列表查询参数
type PlaceListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// AvailabilityRequest 场地空闲时段查询参数
type AvailabilityRequest struct {
	Date            string `form:"date"`
	DurationMinutes int    `form:"duration_minutes" binding:"omitempty,min=1,max=1440"`
}

// PlaceResponse 场地信息响应
type PlaceResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Capacity  int    `json:"capacity"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// PlaceBrief 场地简要信息
type PlaceBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailabilityResponse 场地某天的占用与空闲时段
type AvailabilityResponse struct {
	PlaceID string      `json:"place_id"`
	Date    string      `json:"date"`
	Busy    []TimeRange `json:"busy"`
	Free    []TimeRange `json:"free"`
}
