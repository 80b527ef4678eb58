package models

import "time"

// Remainder records mail left unprocessed at a location for one day.
type Remainder struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy          string     `gorm:"column:created_by;not null"`
	UpdatedBy          *string    `gorm:"column:updated_by"`
	LocationID         string     `gorm:"column:location_id;not null"`
	DateFor            string     `gorm:"column:date_for;not null"`
	Network            string     `gorm:"column:network;not null"`
	Kind               string     `gorm:"column:kind;not null"`
	TechnologicalGroup string     `gorm:"column:technological_group;not null"`
	Amount             float64    `gorm:"column:amount;not null"`
	Note               *string    `gorm:"column:note"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          *time.Time `gorm:"column:updated_at"`
}

func (Remainder) TableName() string { return "remainder" }

// RemainderCrate counts crates the remainder occupies, per crate kind.
type RemainderCrate struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RemainderID int64   `gorm:"column:remainder_id;not null;index"`
	Crate       string  `gorm:"column:crate;not null"`
	Amount      float64 `gorm:"column:amount;not null"`
}

func (RemainderCrate) TableName() string { return "remainder_crate" }
