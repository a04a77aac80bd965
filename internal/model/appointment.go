package model

import "time"

// AppointmentStatus 预约状态
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment 预约表，对应 appointments
// 同一场地同一天内，两个 scheduled 预约的 [start, end) 不得重叠
type Appointment struct {
	AppointmentID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	ActivityID    string            `gorm:"type:uuid;not null;index"                       json:"activity_id"`
	PlaceID       string            `gorm:"type:uuid;not null"                             json:"place_id"`
	Date          time.Time         `gorm:"type:date;not null"                             json:"date"`
	StartTime     string            `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string            `gorm:"type:time;not null"                             json:"end_time"`
	Status        AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	CancelReason  *string           `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	CreatorID     string            `gorm:"type:varchar(64);not null"                      json:"creator_id"`
	VersionedModel

	// 关联
	Activity *Activity `gorm:"foreignKey:ActivityID;references:ActivityID" json:"activity,omitempty"`
	Place    *Place    `gorm:"foreignKey:PlaceID;references:PlaceID"       json:"place,omitempty"`
}

// TableName 指定表名
func (Appointment) TableName() string { return "appointments" }

// Window 预约的时间窗口（分钟）
// 库中时间格式非法时返回零值窗口，不参与任何重叠判断
func (a *Appointment) Window() TimeWindow {
	w, err := ParseWindow(a.StartTime, a.EndTime)
	if err != nil {
		return TimeWindow{}
	}
	return w
}
