package models

import "time"

// EnumValue is one entry of the reference-data registry, namespaced by key.
// The (key, name) pair is unique so implicit creation can insert-ignore.
type EnumValue struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;not null;uniqueIndex:enum_value_key_name_uq,priority:1"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:enum_value_key_name_uq,priority:2"`
	Enabled   bool      `gorm:"column:enabled;not null;default:true"`
	CreatedBy *string   `gorm:"column:created_by"`
	UpdatedBy *string   `gorm:"column:updated_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (EnumValue) TableName() string { return "enum_value" }
