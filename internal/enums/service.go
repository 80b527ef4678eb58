package enums

import (
	"context"
	stdErrors "errors"
	"strings"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"gorm.io/gorm"
)

// Row is one registry entry as listed and read through the admin surface.
type Row struct {
	ID            int64     `json:"id" gorm:"column:id"`
	Name          string    `json:"name" gorm:"column:name"`
	Enabled       bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"column:updated_at"`
	CreatedByName *string   `json:"createdByName" gorm:"column:created_by_name"`
	UpdatedByName *string   `json:"updatedByName" gorm:"column:updated_by_name"`
}

// Filter is the strict listing filter for one registry key.
type Filter struct {
	Enabled *bool `json:"enabled"`
}

// UpdateInput carries the mutable fields of one value. Nil fields are
// left untouched.
type UpdateInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Enabled *bool   `json:"enabled"`
}

var sortColumns = map[string]string{
	"name":      "enum_value.name",
	"enabled":   "enum_value.enabled",
	"createdAt": "enum_value.created_at",
	"updatedAt": "enum_value.updated_at",
}

// Service manages the reference-data registry.
type Service struct {
	db *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{db: client}
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.DB().WithContext(ctx).
		Table("enum_value").
		Select(`enum_value.id, enum_value.name, enum_value.enabled,
			enum_value.created_at, enum_value.updated_at,
			creator.full_name AS created_by_name,
			updater.full_name AS updated_by_name`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = enum_value.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = enum_value.updated_by`)
}

// FindMany lists the values of one registry key.
func (s *Service) FindMany(ctx context.Context, key string, find paginate.Find) (*paginate.Page[Row], error) {
	if !IsKey(key) {
		return nil, errors.New(errors.CodeNotFound, "unknown enum")
	}

	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.base(ctx).Where("enum_value.key = ?", key)
	if filter != nil && filter.Enabled != nil {
		q = q.Where("enum_value.enabled = ?", *filter.Enabled)
	}
	q = records.ApplySearch(q, find.Search, "enum_value.name")
	q = q.Order(orderClause(find))
	q = records.ApplyPage(q, find)

	var rows []Row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

func orderClause(find paginate.Find) string {
	col, ok := sortColumns[find.SortBy]
	if !ok {
		return "enum_value.name asc"
	}
	dir := "asc"
	if find.SortOrder == "desc" {
		dir = "desc"
	}
	return col + " " + dir
}

// GetOne reads a single value of one registry key.
func (s *Service) GetOne(ctx context.Context, key string, id int64) (*Row, error) {
	if !IsKey(key) {
		return nil, errors.New(errors.CodeNotFound, "unknown enum")
	}

	var row Row
	err := s.base(ctx).
		Where("enum_value.key = ? AND enum_value.id = ?", key, id).
		Take(&row).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "enum value not found")
		}
		return nil, err
	}
	return &row, nil
}

// Create adds a value under an editable key. Duplicate names within the
// key are conflicts.
func (s *Service) Create(ctx context.Context, userID, key, name string) (*Row, error) {
	if !IsEditableKey(key) {
		return nil, errors.New(errors.CodeNotFound, "unknown enum")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}

	row := models.EnumValue{
		Key:       key,
		Name:      name,
		Enabled:   true,
		CreatedBy: &userID,
	}
	if err := s.db.DB().WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, "enum_value_key_name_uq") {
			return nil, errors.New(errors.CodeConflict, "enum value already exists")
		}
		return nil, err
	}
	return s.GetOne(ctx, key, row.ID)
}

// Update renames or toggles a value under an editable key.
func (s *Service) Update(ctx context.Context, userID, key string, id int64, input UpdateInput) (*Row, error) {
	if !IsEditableKey(key) {
		return nil, errors.New(errors.CodeNotFound, "unknown enum")
	}

	updates := map[string]any{"updated_by": userID}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New(errors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}

	res := s.db.DB().WithContext(ctx).
		Model(&models.EnumValue{}).
		Where("key = ? AND id = ?", key, id).
		Updates(updates)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error, "enum_value_key_name_uq") {
			return nil, errors.New(errors.CodeConflict, "enum value already exists")
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New(errors.CodeNotFound, "enum value not found")
	}
	return s.GetOne(ctx, key, id)
}

// Delete removes a value under an editable key.
func (s *Service) Delete(ctx context.Context, key string, id int64) error {
	if !IsEditableKey(key) {
		return errors.New(errors.CodeNotFound, "unknown enum")
	}

	res := s.db.DB().WithContext(ctx).
		Where("key = ? AND id = ?", key, id).
		Delete(&models.EnumValue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "enum value not found")
	}
	return nil
}
