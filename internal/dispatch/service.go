package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"gorm.io/gorm"
)

// Filter is the strict listing filter.
type Filter struct {
	CreatedAt  *records.TimeRange `json:"createdAt"`
	LocationID []string           `json:"locationId"`
	TypeEnumID []int64            `json:"typeEnumId"`
	KeyEnumID  []int64            `json:"keyEnumId"`
}

// UpsertInput carries one dispatch log entry.
type UpsertInput struct {
	UserTime    time.Time `json:"userTime" validate:"required"`
	LocationID  string    `json:"locationId" validate:"required"`
	TypeEnumID  int64     `json:"typeEnumId" validate:"required"`
	KeyEnumID   int64     `json:"keyEnumId" validate:"required"`
	Description *string   `json:"description"`
}

// Row is the joined read used by both listings and detail.
type Row struct {
	ID                int64      `json:"id" gorm:"column:id"`
	CreatedBy         string     `json:"createdBy" gorm:"column:created_by"`
	UpdatedBy         *string    `json:"updatedBy" gorm:"column:updated_by"`
	UserTime          time.Time  `json:"userTime" gorm:"column:user_time"`
	LocationID        string     `json:"locationId" gorm:"column:location_id"`
	TypeEnumID        int64      `json:"typeEnumId" gorm:"column:type_enum_id"`
	KeyEnumID         int64      `json:"keyEnumId" gorm:"column:key_enum_id"`
	Description       *string    `json:"description" gorm:"column:description"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt         *time.Time `json:"updatedAt" gorm:"column:updated_at"`
	CreatedByFullName *string    `json:"createdByFullName" gorm:"column:created_by_full_name"`
	UpdatedByFullName *string    `json:"updatedByFullName" gorm:"column:updated_by_full_name"`
	LocationName      *string    `json:"locationName" gorm:"column:location_name"`
	TypeEnumName      *string    `json:"typeEnumName" gorm:"column:type_enum_name"`
	KeyEnumName       *string    `json:"keyEnumName" gorm:"column:key_enum_name"`
}

// Meta feeds the dispatch form.
type Meta struct {
	Locations []records.LocationOption `json:"locations"`
	Types     []records.EnumOption     `json:"types"`
	Keys      []records.EnumOption     `json:"keys"`
}

// Service owns the dispatch log, a flat record without children or
// attachments.
type Service struct {
	db *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{db: client}
}

func (s *Service) Meta(ctx context.Context) (*Meta, error) {
	conn := s.db.DB()

	locations, err := records.LocationOptions(ctx, conn, "SPU")
	if err != nil {
		return nil, err
	}
	options, err := records.EnumOptions(ctx, conn, enums.KeyKlic, enums.KeyType)
	if err != nil {
		return nil, err
	}

	types := records.FilterEnumOptions(options, enums.KeyType)
	keys := records.FilterEnumOptions(options, enums.KeyKlic)
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })

	return &Meta{Locations: locations, Types: types, Keys: keys}, nil
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.DB().WithContext(ctx).
		Table("dispatch").
		Select(`dispatch.*,
			creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name,
			type_enum.name AS type_enum_name,
			key_enum.name AS key_enum_name`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = dispatch.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = dispatch.updated_by`).
		Joins("LEFT JOIN location ON location.id = dispatch.location_id").
		Joins("LEFT JOIN enum_value AS type_enum ON type_enum.id = dispatch.type_enum_id").
		Joins("LEFT JOIN enum_value AS key_enum ON key_enum.id = dispatch.key_enum_id")
}

// FindMany lists entries newest first.
func (s *Service) FindMany(ctx context.Context, find paginate.Find) (*paginate.Page[Row], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.base(ctx).Order("dispatch.created_at desc, dispatch.id desc")

	if filter != nil {
		q, err = records.ApplyTimeRange(q, "dispatch.created_at", filter.CreatedAt)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "dispatch.location_id", filter.LocationID)
		q = records.ApplyIn(q, "dispatch.type_enum_id", filter.TypeEnumID)
		q = records.ApplyIn(q, "dispatch.key_enum_id", filter.KeyEnumID)
	}

	q = records.ApplySearch(q, find.Search, "location.name", "type_enum.name", "key_enum.name", "dispatch.description")
	q = records.ApplyPage(q, find)

	var rows []Row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

func (s *Service) GetOne(ctx context.Context, id int64) (*Row, error) {
	var row Row
	err := s.base(ctx).Where("dispatch.id = ?", id).Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "dispatch entry not found")
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) Create(ctx context.Context, p *identity.Principal, input UpsertInput) (*Row, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	entry := models.Dispatch{
		CreatedBy:   p.ID,
		UserTime:    input.UserTime,
		LocationID:  input.LocationID,
		TypeEnumID:  input.TypeEnumID,
		KeyEnumID:   input.KeyEnumID,
		Description: input.Description,
	}
	if err := s.db.DB().WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}

	return s.GetOne(ctx, entry.ID)
}

func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, input UpsertInput) (*Row, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}
	scope := records.ScopeFor(p, identity.RoleDispecink)

	updates := map[string]any{
		"updated_by":   p.ID,
		"updated_at":   time.Now(),
		"user_time":    input.UserTime,
		"location_id":  input.LocationID,
		"type_enum_id": input.TypeEnumID,
		"key_enum_id":  input.KeyEnumID,
		"description":  input.Description,
	}
	err := records.UpdateOwned(s.db.DB().WithContext(ctx), &models.Dispatch{}, id, scope, "location_id", updates)
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	scope := records.ScopeFor(p, identity.RoleDispecink)
	return records.DeleteOwned(s.db.DB().WithContext(ctx), &models.Dispatch{}, id, scope, "location_id")
}
