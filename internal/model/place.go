package model

// Place 场地表，对应 places（由场地管理服务维护，本服务只读）
type Place struct {
	PlaceID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"place_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Address  string `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	Capacity int    `gorm:"not null;default:0"                             json:"capacity"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Place) TableName() string { return "places" }
