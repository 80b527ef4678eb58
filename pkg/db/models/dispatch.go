package models

import "time"

// Dispatch is a single operational log entry tied to a location.
type Dispatch struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy   string     `gorm:"column:created_by;not null"`
	UpdatedBy   *string    `gorm:"column:updated_by"`
	UserTime    time.Time  `gorm:"column:user_time;not null"`
	LocationID  string     `gorm:"column:location_id;not null"`
	TypeEnumID  int64      `gorm:"column:type_enum_id;not null"`
	KeyEnumID   int64      `gorm:"column:key_enum_id;not null"`
	Description *string    `gorm:"column:description"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"column:updated_at"`
}

func (Dispatch) TableName() string { return "dispatch" }
