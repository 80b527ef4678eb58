package machinings

import (
	"context"
	"time"

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
	DateFor    *records.TimeRange `json:"dateFor"`
	LocationID []string           `json:"locationId"`
}

// CreateInput opens one daily sheet for a location.
type CreateInput struct {
	DateFor    string `json:"dateFor" validate:"required"`
	LocationID string `json:"locationId" validate:"required"`
}

// MachineInput is one recorded machine value in a sheet update. The
// update payload is the whole list; it replaces previous values.
type MachineInput struct {
	Machine string  `json:"machine" validate:"required"`
	Value   *string `json:"value"`
	Note    *string `json:"note"`
}

// MachineRow is one machine of the sheet's location with its recorded
// value, nil when nothing was entered yet.
type MachineRow struct {
	Machine string  `json:"machine"`
	Value   *string `json:"value"`
	Note    *string `json:"note"`
}

// Row is the joined sheet read used by listings and detail.
type Row struct {
	ID                int64        `json:"id"`
	CreatedBy         string       `json:"createdBy"`
	UpdatedBy         *string      `json:"updatedBy"`
	DateFor           string       `json:"dateFor"`
	LocationID        string       `json:"locationId"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         *time.Time   `json:"updatedAt"`
	CreatedByFullName *string      `json:"createdByFullName"`
	UpdatedByFullName *string      `json:"updatedByFullName"`
	LocationName      *string      `json:"locationName"`
	Machines          []MachineRow `json:"machines"`
}

// Meta feeds the sheet form.
type Meta struct {
	Locations []records.LocationOption `json:"locations"`
	Machines  []string                 `json:"machines"`
}

// Service owns the daily machine throughput sheets.
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

	var machines []string
	err = conn.WithContext(ctx).
		Model(&models.Machine{}).
		Order("value asc").
		Pluck("value", &machines).Error
	if err != nil {
		return nil, err
	}

	return &Meta{Locations: locations, Machines: machines}, nil
}

type headerScan struct {
	ID                int64      `gorm:"column:id"`
	CreatedBy         string     `gorm:"column:created_by"`
	UpdatedBy         *string    `gorm:"column:updated_by"`
	DateFor           string     `gorm:"column:date_for"`
	LocationID        string     `gorm:"column:location_id"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         *time.Time `gorm:"column:updated_at"`
	CreatedByFullName *string    `gorm:"column:created_by_full_name"`
	UpdatedByFullName *string    `gorm:"column:updated_by_full_name"`
	LocationName      *string    `gorm:"column:location_name"`
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.DB().WithContext(ctx).
		Table("machining").
		Select(`machining.*,
			creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = machining.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = machining.updated_by`).
		Joins("LEFT JOIN location ON location.id = machining.location_id")
}

// assemble attaches every machine the sheet's location operates,
// carrying recorded values where present.
func (s *Service) assemble(ctx context.Context, scans []headerScan) ([]Row, error) {
	rows := make([]Row, 0, len(scans))
	if len(scans) == 0 {
		return rows, nil
	}

	locationIDs := make([]string, 0, len(scans))
	sheetIDs := make([]int64, 0, len(scans))
	for _, sc := range scans {
		locationIDs = append(locationIDs, sc.LocationID)
		sheetIDs = append(sheetIDs, sc.ID)
	}

	var locMachines []models.LocationMachine
	err := s.db.DB().WithContext(ctx).
		Where("location_id IN ?", locationIDs).
		Order("machine asc").
		Find(&locMachines).Error
	if err != nil {
		return nil, err
	}
	byLocation := make(map[string][]string)
	for _, lm := range locMachines {
		byLocation[lm.LocationID] = append(byLocation[lm.LocationID], lm.Machine)
	}

	var values []models.MachiningMachine
	err = s.db.DB().WithContext(ctx).
		Where("machining_id IN ?", sheetIDs).
		Find(&values).Error
	if err != nil {
		return nil, err
	}
	type valueKey struct {
		sheet   int64
		machine string
	}
	bySheet := make(map[valueKey]models.MachiningMachine, len(values))
	for _, v := range values {
		bySheet[valueKey{v.MachiningID, v.Machine}] = v
	}

	for _, sc := range scans {
		machines := make([]MachineRow, 0, len(byLocation[sc.LocationID]))
		for _, machine := range byLocation[sc.LocationID] {
			row := MachineRow{Machine: machine}
			if v, ok := bySheet[valueKey{sc.ID, machine}]; ok {
				row.Value = v.Value
				row.Note = v.Note
			}
			machines = append(machines, row)
		}
		rows = append(rows, Row{
			ID:                sc.ID,
			CreatedBy:         sc.CreatedBy,
			UpdatedBy:         sc.UpdatedBy,
			DateFor:           sc.DateFor,
			LocationID:        sc.LocationID,
			CreatedAt:         sc.CreatedAt,
			UpdatedAt:         sc.UpdatedAt,
			CreatedByFullName: sc.CreatedByFullName,
			UpdatedByFullName: sc.UpdatedByFullName,
			LocationName:      sc.LocationName,
			Machines:          machines,
		})
	}
	return rows, nil
}

// FindMany lists sheets newest date first.
func (s *Service) FindMany(ctx context.Context, find paginate.Find) (*paginate.Page[Row], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.base(ctx).Order("machining.date_for desc, machining.id desc")

	if filter != nil {
		q, err = records.ApplyDateRange(q, "machining.date_for", filter.DateFor)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "machining.location_id", filter.LocationID)
	}

	q = records.ApplySearch(q, find.Search, "location.name")
	q = records.ApplyPage(q, find)

	var scans []headerScan
	if err := q.Scan(&scans).Error; err != nil {
		return nil, err
	}

	rows, err := s.assemble(ctx, scans)
	if err != nil {
		return nil, err
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

func (s *Service) GetOne(ctx context.Context, id int64) (*Row, error) {
	var scan headerScan
	err := s.base(ctx).Where("machining.id = ?", id).Take(&scan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "machining sheet not found")
		}
		return nil, err
	}

	rows, err := s.assemble(ctx, []headerScan{scan})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// Create opens the sheet for (date, location). A concurrent or repeated
// create converges on the existing sheet instead of failing.
func (s *Service) Create(ctx context.Context, p *identity.Principal, input CreateInput) (*Row, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	sheet := models.Machining{
		CreatedBy:  p.ID,
		DateFor:    input.DateFor,
		LocationID: input.LocationID,
	}
	err := s.db.DB().WithContext(ctx).Create(&sheet).Error
	if err != nil {
		if !db.IsUniqueViolation(err, "") {
			return nil, err
		}
		var existing models.Machining
		err = s.db.DB().WithContext(ctx).
			Where("date_for = ? AND location_id = ?", input.DateFor, input.LocationID).
			Take(&existing).Error
		if err != nil {
			return nil, err
		}
		sheet.ID = existing.ID
	}

	return s.GetOne(ctx, sheet.ID)
}

// Update replaces the recorded machine values wholesale and stamps the
// sheet as touched.
func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, machines []MachineInput) (*Row, error) {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Machining{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.MachiningMachine{}, "machining_id", id); err != nil {
			return err
		}

		rows := make([]models.MachiningMachine, 0, len(machines))
		for _, m := range machines {
			rows = append(rows, models.MachiningMachine{
				MachiningID: id,
				Machine:     m.Machine,
				Value:       m.Value,
				Note:        m.Note,
			})
		}
		if err := records.InsertAll(tx, rows); err != nil {
			return err
		}

		updates := map[string]any{"updated_by": p.ID, "updated_at": time.Now()}
		return records.UpdateOwned(tx, &models.Machining{}, id, scope, "location_id", updates)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Machining{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.MachiningMachine{}, "machining_id", id); err != nil {
			return err
		}
		return records.DeleteOwned(tx, &models.Machining{}, id, scope, "location_id")
	})
}
