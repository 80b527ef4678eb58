package models

import "time"

// RegionalReport is an irregularity report filed by regional logistics.
type RegionalReport struct {
	ID                   int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy            string     `gorm:"column:created_by;not null"`
	UpdatedBy            *string    `gorm:"column:updated_by"`
	DateFor              string     `gorm:"column:date_for;not null"`
	Category             string     `gorm:"column:category;not null"`
	Network              string     `gorm:"column:network;not null"`
	LocationID           string     `gorm:"column:location_id;not null"`
	Description          string     `gorm:"column:description;not null"`
	ActionTaken          *string    `gorm:"column:action_taken"`
	CourseCode           *string    `gorm:"column:course_code"`
	CoursePlannedArrival *string    `gorm:"column:course_planned_arrival"`
	CourseRealArrival    *string    `gorm:"column:course_real_arrival"`
	CourseDelayEnumID    *int64     `gorm:"column:course_delay_enum_id"`
	Note                 *string    `gorm:"column:note"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            *time.Time `gorm:"column:updated_at"`
}

func (RegionalReport) TableName() string { return "regional_report" }

type RegionalReportFile struct {
	ID               int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RegionalReportID int64  `gorm:"column:regional_report_id;not null;index"`
	Filename         string `gorm:"column:filename;not null"`
	Type             string `gorm:"column:type;not null"`
	DisplayName      string `gorm:"column:display_name;not null"`
}

func (RegionalReportFile) TableName() string { return "regional_report_file" }
