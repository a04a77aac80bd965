package model

import "time"

// ActivityStatus 活动状态
type ActivityStatus string

const (
	ActivityScheduled ActivityStatus = "scheduled"
	ActivityCancelled ActivityStatus = "cancelled"
	ActivityCompleted ActivityStatus = "completed"
)

// Activity 活动表，对应 activities
// 一个活动按重复规则展开为若干预约，创建时整体落库
type Activity struct {
	ActivityID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	Name         string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Recurrence   RecurrenceKind `gorm:"type:varchar(20);not null"                      json:"recurrence"`
	StartDate    time.Time      `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      *time.Time     `gorm:"type:date"                                      json:"end_date,omitempty"`
	Capacity     *int           `gorm:"type:integer"                                   json:"capacity,omitempty"`
	OwnerID      string         `gorm:"type:varchar(64);not null;index"                json:"owner_id"`
	Status       ActivityStatus `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	CancelReason *string        `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	VersionedModel

	// 关联
	Appointments []Appointment `gorm:"foreignKey:ActivityID;references:ActivityID" json:"appointments,omitempty"`
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }

// IsClosed 已取消或已完成的活动不再接受排期字段的修改
func (a *Activity) IsClosed() bool {
	return a.Status == ActivityCancelled || a.Status == ActivityCompleted
}

// LastDate 活动的最后一天；单次活动即开始日期
func (a *Activity) LastDate() time.Time {
	if a.Recurrence == RecurrenceSingle || a.EndDate == nil {
		return a.StartDate
	}
	return *a.EndDate
}
