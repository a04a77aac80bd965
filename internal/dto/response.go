package dto

// ── 通用响应片段 ──

// TimeRange 时间窗口 HH:MM-HH:MM
type TimeRange struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ConflictDetail 排期冲突详情（随 SchedulingConflict 错误返回）
type ConflictDetail struct {
	PlaceID               string      `json:"place_id"`
	Date                  string      `json:"date"`
	Requested             TimeRange   `json:"requested"`
	ConflictingID         string      `json:"conflicting_appointment_id"`
	ConflictingActivityID string      `json:"conflicting_activity_id"`
	Conflicting           TimeRange   `json:"conflicting"`
	Suggestions           []TimeRange `json:"suggestions,omitempty"`
}
