package remainders

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
	CreatedAt          *records.TimeRange `json:"createdAt"`
	LocationID         []string           `json:"locationId"`
	Network            []string           `json:"network"`
	Kind               []string           `json:"kind"`
	TechnologicalGroup []string           `json:"technologicalGroup"`
}

// CrateInput counts crates of one kind the remainder occupies.
type CrateInput struct {
	Crate  string  `json:"crate" validate:"required"`
	Amount float64 `json:"amount"`
}

// UpsertInput carries one remainder record with its crate counts.
type UpsertInput struct {
	LocationID         string       `json:"locationId" validate:"required"`
	DateFor            string       `json:"dateFor" validate:"required"`
	Network            string       `json:"network" validate:"required"`
	Kind               string       `json:"kind" validate:"required"`
	TechnologicalGroup string       `json:"technologicalGroup" validate:"required"`
	Amount             float64      `json:"amount"`
	Crates             []CrateInput `json:"crates" validate:"dive"`
	Note               *string      `json:"note"`
}

// CrateRow is one crate count of a remainder.
type CrateRow struct {
	Crate  string  `json:"crate" gorm:"column:crate"`
	Amount float64 `json:"amount" gorm:"column:amount"`
}

// Row is the joined read used by listings and detail.
type Row struct {
	ID                      int64      `json:"id"`
	CreatedBy               string     `json:"createdBy"`
	UpdatedBy               *string    `json:"updatedBy"`
	LocationID              string     `json:"locationId"`
	DateFor                 string     `json:"dateFor"`
	Network                 string     `json:"network"`
	Kind                    string     `json:"kind"`
	TechnologicalGroup      string     `json:"technologicalGroup"`
	Amount                  float64    `json:"amount"`
	Note                    *string    `json:"note"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               *time.Time `json:"updatedAt"`
	CreatedByFullName       *string    `json:"createdByFullName"`
	UpdatedByFullName       *string    `json:"updatedByFullName"`
	LocationName            *string    `json:"locationName"`
	TechnologicalGroupUnit  *string    `json:"technologicalGroupUnit"`
	TechnologicalGroupGroup *string    `json:"technologicalGroupGroup"`
	Crates                  []CrateRow `json:"crates"`
}

// TechGroupOption is a technological group with its permitted crates.
type TechGroupOption struct {
	Value  string   `json:"value"`
	Unit   string   `json:"unit"`
	Group  string   `json:"group"`
	Crates []string `json:"crates"`
}

// Meta feeds the remainder form: SPU locations, the crate catalog and
// technological groups.
type Meta struct {
	Locations           []records.LocationOption `json:"locations"`
	Crates              []string                 `json:"crates"`
	TechnologicalGroups []TechGroupOption        `json:"technologicalGroups"`
}

// Service owns remainder records and their crate counts.
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

	var crates []string
	err = conn.WithContext(ctx).
		Model(&models.Crate{}).
		Order("value asc").
		Pluck("value", &crates).Error
	if err != nil {
		return nil, err
	}

	var groups []models.TechnologicalGroup
	if err := conn.WithContext(ctx).Order("value asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	var links []models.TechnologicalGroupCrate
	err = conn.WithContext(ctx).
		Order("technological_group asc, crate asc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	linked := make(map[string][]string)
	for _, link := range links {
		linked[link.TechnologicalGroup] = append(linked[link.TechnologicalGroup], link.Crate)
	}

	groupOptions := make([]TechGroupOption, 0, len(groups))
	for _, g := range groups {
		opt := TechGroupOption{Value: g.Value, Unit: g.Unit, Group: g.Group, Crates: linked[g.Value]}
		if opt.Crates == nil {
			opt.Crates = []string{}
		}
		groupOptions = append(groupOptions, opt)
	}

	return &Meta{Locations: locations, Crates: crates, TechnologicalGroups: groupOptions}, nil
}

type headerScan struct {
	ID                      int64      `gorm:"column:id"`
	CreatedBy               string     `gorm:"column:created_by"`
	UpdatedBy               *string    `gorm:"column:updated_by"`
	LocationID              string     `gorm:"column:location_id"`
	DateFor                 string     `gorm:"column:date_for"`
	Network                 string     `gorm:"column:network"`
	Kind                    string     `gorm:"column:kind"`
	TechnologicalGroup      string     `gorm:"column:technological_group"`
	Amount                  float64    `gorm:"column:amount"`
	Note                    *string    `gorm:"column:note"`
	CreatedAt               time.Time  `gorm:"column:created_at"`
	UpdatedAt               *time.Time `gorm:"column:updated_at"`
	CreatedByFullName       *string    `gorm:"column:created_by_full_name"`
	UpdatedByFullName       *string    `gorm:"column:updated_by_full_name"`
	LocationName            *string    `gorm:"column:location_name"`
	TechnologicalGroupUnit  *string    `gorm:"column:technological_group_unit"`
	TechnologicalGroupGroup *string    `gorm:"column:technological_group_group"`
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.DB().WithContext(ctx).
		Table("remainder").
		Select(`remainder.*,
			creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name,
			tech_group.unit AS technological_group_unit,
			tech_group."group" AS technological_group_group`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = remainder.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = remainder.updated_by`).
		Joins("LEFT JOIN location ON location.id = remainder.location_id").
		Joins("LEFT JOIN technological_group AS tech_group ON tech_group.value = remainder.technological_group")
}

func (s *Service) assemble(ctx context.Context, scans []headerScan) ([]Row, error) {
	rows := make([]Row, 0, len(scans))
	if len(scans) == 0 {
		return rows, nil
	}

	ids := make([]int64, 0, len(scans))
	for _, sc := range scans {
		ids = append(ids, sc.ID)
	}

	var crates []models.RemainderCrate
	err := s.db.DB().WithContext(ctx).
		Where("remainder_id IN ?", ids).
		Order("id asc").
		Find(&crates).Error
	if err != nil {
		return nil, err
	}
	byRemainder := make(map[int64][]CrateRow)
	for _, c := range crates {
		byRemainder[c.RemainderID] = append(byRemainder[c.RemainderID], CrateRow{Crate: c.Crate, Amount: c.Amount})
	}

	for _, sc := range scans {
		crateRows := byRemainder[sc.ID]
		if crateRows == nil {
			crateRows = []CrateRow{}
		}
		rows = append(rows, Row{
			ID:                      sc.ID,
			CreatedBy:               sc.CreatedBy,
			UpdatedBy:               sc.UpdatedBy,
			LocationID:              sc.LocationID,
			DateFor:                 sc.DateFor,
			Network:                 sc.Network,
			Kind:                    sc.Kind,
			TechnologicalGroup:      sc.TechnologicalGroup,
			Amount:                  sc.Amount,
			Note:                    sc.Note,
			CreatedAt:               sc.CreatedAt,
			UpdatedAt:               sc.UpdatedAt,
			CreatedByFullName:       sc.CreatedByFullName,
			UpdatedByFullName:       sc.UpdatedByFullName,
			LocationName:            sc.LocationName,
			TechnologicalGroupUnit:  sc.TechnologicalGroupUnit,
			TechnologicalGroupGroup: sc.TechnologicalGroupGroup,
			Crates:                  crateRows,
		})
	}
	return rows, nil
}

// FindMany lists remainders newest first.
func (s *Service) FindMany(ctx context.Context, find paginate.Find) (*paginate.Page[Row], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.base(ctx).Order("remainder.created_at desc, remainder.id desc")

	if filter != nil {
		q, err = records.ApplyTimeRange(q, "remainder.created_at", filter.CreatedAt)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "remainder.location_id", filter.LocationID)
		q = records.ApplyIn(q, "remainder.network", filter.Network)
		q = records.ApplyIn(q, "remainder.kind", filter.Kind)
		q = records.ApplyIn(q, "remainder.technological_group", filter.TechnologicalGroup)
	}

	q = records.ApplySearch(q, find.Search, "location.name", "remainder.network")
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
	err := s.base(ctx).Where("remainder.id = ?", id).Take(&scan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "remainder not found")
		}
		return nil, err
	}

	rows, err := s.assemble(ctx, []headerScan{scan})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func crateModels(remainderID int64, crates []CrateInput) []models.RemainderCrate {
	rows := make([]models.RemainderCrate, 0, len(crates))
	for _, c := range crates {
		rows = append(rows, models.RemainderCrate{RemainderID: remainderID, Crate: c.Crate, Amount: c.Amount})
	}
	return rows
}

func (s *Service) Create(ctx context.Context, p *identity.Principal, input UpsertInput) (*Row, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	remainder := models.Remainder{
		CreatedBy:          p.ID,
		LocationID:         input.LocationID,
		DateFor:            input.DateFor,
		Network:            input.Network,
		Kind:               input.Kind,
		TechnologicalGroup: input.TechnologicalGroup,
		Amount:             input.Amount,
		Note:               input.Note,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&remainder).Error; err != nil {
			return err
		}
		return records.InsertAll(tx, crateModels(remainder.ID, input.Crates))
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, remainder.ID)
}

func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, input UpsertInput) (*Row, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}
	scope := records.ScopeFor(p, identity.RoleDispecink)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"updated_by":          p.ID,
			"updated_at":          time.Now(),
			"location_id":         input.LocationID,
			"date_for":            input.DateFor,
			"network":             input.Network,
			"kind":                input.Kind,
			"technological_group": input.TechnologicalGroup,
			"amount":              input.Amount,
			"note":                input.Note,
		}
		if err := records.UpdateOwned(tx, &models.Remainder{}, id, scope, "location_id", updates); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.RemainderCrate{}, "remainder_id", id); err != nil {
			return err
		}
		return records.InsertAll(tx, crateModels(id, input.Crates))
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Remainder{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.RemainderCrate{}, "remainder_id", id); err != nil {
			return err
		}
		return records.DeleteOwned(tx, &models.Remainder{}, id, scope, "location_id")
	})
}
