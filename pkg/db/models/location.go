package models

import "time"

// Location is a postal facility pulled from the upstream directory.
type Location struct {
	ID             string  `gorm:"column:id;primaryKey"`
	Zip            string  `gorm:"column:zip;not null"`
	Name           string  `gorm:"column:name;not null"`
	Region         string  `gorm:"column:region;not null"`
	RegionOrg      string  `gorm:"column:region_org;not null"`
	SpuName        *string `gorm:"column:spu_name"`
	PostOfficeType string  `gorm:"column:post_office_type;not null"`
	Email          *string `gorm:"column:email"`
}

func (Location) TableName() string { return "location" }

// UserLocation grants a user access to one location under one role.
type UserLocation struct {
	UserID     string `gorm:"column:user_id;primaryKey"`
	LocationID string `gorm:"column:location_id;primaryKey"`
	Role       string `gorm:"column:role;primaryKey"`
}

func (UserLocation) TableName() string { return "user_location" }

// LocationRequest is a pending grant request awaiting admin review.
type LocationRequest struct {
	UserID        string    `gorm:"column:user_id;primaryKey"`
	LocationID    string    `gorm:"column:location_id;primaryKey"`
	Role          string    `gorm:"column:role;primaryKey"`
	TimeRequested time.Time `gorm:"column:time_requested;autoCreateTime"`
}

func (LocationRequest) TableName() string { return "location_request" }
