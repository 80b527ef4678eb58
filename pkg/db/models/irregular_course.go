package models

import "time"

// IrregularCourse is an ad-hoc transport run outside the regular schedule.
// Vehicle and trailer plates reference registry entries created implicitly
// on first use.
type IrregularCourse struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy       string     `gorm:"column:created_by;not null"`
	UpdatedBy       *string    `gorm:"column:updated_by"`
	LocationID      string     `gorm:"column:location_id;not null"`
	InitialStop     string     `gorm:"column:initial_stop;not null"`
	InitialStopDate string     `gorm:"column:initial_stop_date;not null"`
	InitialStopTime string     `gorm:"column:initial_stop_time;not null"`
	FinalStop       string     `gorm:"column:final_stop;not null"`
	FinalStopDate   string     `gorm:"column:final_stop_date;not null"`
	FinalStopTime   string     `gorm:"column:final_stop_time;not null"`
	Network         string     `gorm:"column:network;not null"`
	Transporter     string     `gorm:"column:transporter;not null"`
	VehiclePlate    int64      `gorm:"column:vehicle_plate;not null"`
	TrailerPlate    *int64     `gorm:"column:trailer_plate"`
	Distance        *float64   `gorm:"column:distance"`
	Note            *string    `gorm:"column:note"`
	OtherLoad       *string    `gorm:"column:other_load"`
	Load            *float64   `gorm:"column:load"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       *time.Time `gorm:"column:updated_at"`
}

func (IrregularCourse) TableName() string { return "irregular_course" }

// IrregularCourseStop is one ordered intermediate stop of the run.
type IrregularCourseStop struct {
	IrregularCourseID int64 `gorm:"column:irregular_course_id;primaryKey"`
	Sequence          int   `gorm:"column:sequence;primaryKey"`
	StopEnumID        int64 `gorm:"column:stop_enum_id;not null"`
}

func (IrregularCourseStop) TableName() string { return "irregular_course_stop" }

type IrregularCourseLoad struct {
	ID                 int64    `gorm:"column:id;primaryKey;autoIncrement"`
	IrregularCourseID  int64    `gorm:"column:irregular_course_id;not null;index"`
	TechnologicalGroup string   `gorm:"column:technological_group;not null"`
	Amount             *float64 `gorm:"column:amount"`
	Note               *string  `gorm:"column:note"`
}

func (IrregularCourseLoad) TableName() string { return "irregular_course_load" }

type IrregularCourseCrate struct {
	ID                 int64   `gorm:"column:id;primaryKey;autoIncrement"`
	IrregularCourseID  int64   `gorm:"column:irregular_course_id;not null;index"`
	TechnologicalGroup string  `gorm:"column:technological_group;not null"`
	Crate              string  `gorm:"column:crate;not null"`
	Amount             float64 `gorm:"column:amount;not null"`
}

func (IrregularCourseCrate) TableName() string { return "irregular_course_crate" }
