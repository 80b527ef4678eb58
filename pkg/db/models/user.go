package models

import (
	"time"

	"github.com/lib/pq"
)

// User mirrors the identity provider account. The id comes from the upstream
// directory, not from this service.
type User struct {
	ID        string         `gorm:"column:id;primaryKey"`
	GivenName string         `gorm:"column:given_name;not null"`
	Surname   string         `gorm:"column:surname;not null"`
	FullName  string         `gorm:"column:full_name;not null"`
	Roles     pq.StringArray `gorm:"column:roles;type:text[];not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "user" }
