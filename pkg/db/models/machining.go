package models

import "time"

// Machining is one per-day, per-location sheet of machine throughput values.
// The (date_for, location_id) pair is unique so concurrent creates converge
// on the same sheet.
type Machining struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy  string     `gorm:"column:created_by;not null"`
	UpdatedBy  *string    `gorm:"column:updated_by"`
	DateFor    string     `gorm:"column:date_for;not null;uniqueIndex:machining_date_location_uq,priority:1"`
	LocationID string     `gorm:"column:location_id;not null;uniqueIndex:machining_date_location_uq,priority:2"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  *time.Time `gorm:"column:updated_at"`
}

func (Machining) TableName() string { return "machining" }

// MachiningMachine holds the recorded value for one machine on one sheet.
type MachiningMachine struct {
	MachiningID int64   `gorm:"column:machining_id;primaryKey"`
	Machine     string  `gorm:"column:machine;primaryKey"`
	Value       *string `gorm:"column:value"`
	Note        *string `gorm:"column:note"`
}

func (MachiningMachine) TableName() string { return "machining_machine" }

// LocationMachine lists which machines a location operates.
type LocationMachine struct {
	LocationID string `gorm:"column:location_id;primaryKey"`
	Machine    string `gorm:"column:machine;primaryKey"`
}

func (LocationMachine) TableName() string { return "location_machine" }

// Machine is the catalog of known machine codes.
type Machine struct {
	Value string `gorm:"column:value;primaryKey"`
}

func (Machine) TableName() string { return "machine" }
