package records

import (
	"context"

	"gorm.io/gorm"
)

// LocationOption is a picker entry for record forms.
type LocationOption struct {
	ID             string `json:"id" gorm:"column:id"`
	Name           string `json:"name" gorm:"column:name"`
	PostOfficeType string `json:"postOfficeType" gorm:"column:post_office_type"`
}

// EnumOption is an enabled registry value offered by record forms.
type EnumOption struct {
	ID   int64  `json:"id" gorm:"column:id"`
	Key  string `json:"key" gorm:"column:key"`
	Name string `json:"name" gorm:"column:name"`
}

// LocationOptions lists locations of the given office types, ordered by
// name.
func LocationOptions(ctx context.Context, conn *gorm.DB, officeTypes ...string) ([]LocationOption, error) {
	var rows []LocationOption
	err := conn.WithContext(ctx).
		Table("location").
		Select("id, name, post_office_type").
		Where("post_office_type IN ?", officeTypes).
		Order("name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []LocationOption{}
	}
	return rows, nil
}

// EnumOptions lists the enabled values of the given registry keys,
// ordered by name.
func EnumOptions(ctx context.Context, conn *gorm.DB, keys ...string) ([]EnumOption, error) {
	var rows []EnumOption
	err := conn.WithContext(ctx).
		Table("enum_value").
		Select("id, key, name").
		Where("key IN ? AND enabled = ?", keys, true).
		Order("name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []EnumOption{}
	}
	return rows, nil
}

// FilterEnumOptions splits a combined option list by key.
func FilterEnumOptions(options []EnumOption, key string) []EnumOption {
	out := []EnumOption{}
	for _, opt := range options {
		if opt.Key == key {
			out = append(out, opt)
		}
	}
	return out
}
