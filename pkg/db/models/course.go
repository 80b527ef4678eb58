package models

import "time"

// File groups used by course attachments and children.
const (
	CourseGroupDeparture = "departure"
	CourseGroupArrival   = "arrival"
)

// Course is a scheduled transport run between dispatch centers. Times of day
// are kept as zero-padded HH:MM strings so delay predicates stay plain
// string comparisons.
type Course struct {
	ID                         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedBy                  string     `gorm:"column:created_by;not null"`
	UpdatedBy                  *string    `gorm:"column:updated_by"`
	LocationID                 string     `gorm:"column:location_id;not null"`
	CourseCode                 string     `gorm:"column:course_code;not null"`
	DepartureDate              string     `gorm:"column:departure_date;not null"`
	Network                    string     `gorm:"column:network;not null"`
	TransporterEnumID          int64      `gorm:"column:transporter_enum_id;not null"`
	Seals                      *string    `gorm:"column:seals"`
	DeparturePlannedTime       *string    `gorm:"column:departure_planned_time"`
	DepartureRealTime          *string    `gorm:"column:departure_real_time"`
	DepartureDelayReasonEnumID *int64     `gorm:"column:departure_delay_reason_enum_id"`
	DepartureNote              *string    `gorm:"column:departure_note"`
	DepartureLoad              *float64   `gorm:"column:departure_load"`
	DepartureOther             *string    `gorm:"column:departure_other"`
	ArrivalPlannedTime         *string    `gorm:"column:arrival_planned_time"`
	ArrivalRealTime            *string    `gorm:"column:arrival_real_time"`
	ArrivalDelayReasonEnumID   *int64     `gorm:"column:arrival_delay_reason_enum_id"`
	ArrivalNote                *string    `gorm:"column:arrival_note"`
	ArrivalLoad                *float64   `gorm:"column:arrival_load"`
	ArrivalOther               *string    `gorm:"column:arrival_other"`
	CreatedAt                  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  *time.Time `gorm:"column:updated_at"`
}

func (Course) TableName() string { return "course" }

// CourseLoad is a per technological group load figure on departure or arrival.
type CourseLoad struct {
	ID                 int64    `gorm:"column:id;primaryKey;autoIncrement"`
	CourseID           int64    `gorm:"column:course_id;not null;index"`
	Group              string   `gorm:"column:group;not null"`
	TechnologicalGroup string   `gorm:"column:technological_group;not null"`
	Amount             *float64 `gorm:"column:amount"`
	Note               *string  `gorm:"column:note"`
}

func (CourseLoad) TableName() string { return "course_load" }

// CourseCrate counts crates of one kind moved within a technological group.
type CourseCrate struct {
	ID                 int64   `gorm:"column:id;primaryKey;autoIncrement"`
	CourseID           int64   `gorm:"column:course_id;not null;index"`
	Group              string  `gorm:"column:group;not null"`
	TechnologicalGroup string  `gorm:"column:technological_group;not null"`
	Crate              string  `gorm:"column:crate;not null"`
	Amount             float64 `gorm:"column:amount;not null"`
}

func (CourseCrate) TableName() string { return "course_crate" }

// CourseFile references an attachment stored on disk under the course group.
type CourseFile struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CourseID    int64  `gorm:"column:course_id;not null;index"`
	Group       string `gorm:"column:group;not null"`
	Filename    string `gorm:"column:filename;not null"`
	Type        string `gorm:"column:type;not null"`
	DisplayName string `gorm:"column:display_name;not null"`
}

func (CourseFile) TableName() string { return "course_file" }
