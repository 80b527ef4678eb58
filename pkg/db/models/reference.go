package models

// Crate is the catalog of transport container kinds.
type Crate struct {
	Value string `gorm:"column:value;primaryKey"`
}

func (Crate) TableName() string { return "crate" }

// TechnologicalGroup classifies mail streams and carries the unit its
// amounts are reported in.
type TechnologicalGroup struct {
	Value string `gorm:"column:value;primaryKey"`
	Unit  string `gorm:"column:unit;not null"`
	Group string `gorm:"column:group;not null"`
}

func (TechnologicalGroup) TableName() string { return "technological_group" }

// TechnologicalGroupCrate links a group to the crates it may be packed in.
type TechnologicalGroupCrate struct {
	TechnologicalGroup string `gorm:"column:technological_group;primaryKey"`
	Crate              string `gorm:"column:crate;primaryKey"`
}

func (TechnologicalGroupCrate) TableName() string { return "technological_group_crate" }
