package courses

import (
	"context"
	"strconv"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"gorm.io/gorm"
)

const fileGroup = "course"

// Filter is the strict listing filter.
type Filter struct {
	CreatedAt      *records.TimeRange `json:"createdAt"`
	LocationID     []string           `json:"locationId"`
	Network        []string           `json:"network"`
	DepartureDelay []string           `json:"departureDelay"`
	ArrivalDelay   []string           `json:"arrivalDelay"`
}

// LoadInput is one technological-group load figure.
type LoadInput struct {
	TechnologicalGroup string   `json:"technologicalGroup" validate:"required"`
	Amount             *float64 `json:"amount"`
	Note               *string  `json:"note"`
}

// CrateInput is one crate count within a technological group.
type CrateInput struct {
	TechnologicalGroup string  `json:"technologicalGroup" validate:"required"`
	Crate              string  `json:"crate" validate:"required"`
	Amount             float64 `json:"amount"`
}

// UpsertInput carries the full course payload; create and update share
// it.
type UpsertInput struct {
	LocationID                 string       `json:"locationId" validate:"required"`
	CourseCode                 string       `json:"courseCode" validate:"required"`
	DepartureDate              string       `json:"departureDate" validate:"required"`
	Network                    string       `json:"network" validate:"required"`
	TransporterEnumID          int64        `json:"transporterEnumId" validate:"required"`
	Seals                      *string      `json:"seals"`
	DeparturePlannedTime       *string      `json:"departurePlannedTime"`
	DepartureRealTime          *string      `json:"departureRealTime"`
	DepartureDelayReasonEnumID *int64       `json:"departureDelayReasonEnumId"`
	DepartureNote              *string      `json:"departureNote"`
	DepartureLoad              *float64     `json:"departureLoad"`
	DepartureOther             *string      `json:"departureOther"`
	DepartureLoads             []LoadInput  `json:"departureLoads" validate:"dive"`
	DepartureCrates            []CrateInput `json:"departureCrates" validate:"dive"`
	ArrivalPlannedTime         *string      `json:"arrivalPlannedTime"`
	ArrivalRealTime            *string      `json:"arrivalRealTime"`
	ArrivalDelayReasonEnumID   *int64       `json:"arrivalDelayReasonEnumId"`
	ArrivalNote                *string      `json:"arrivalNote"`
	ArrivalLoad                *float64     `json:"arrivalLoad"`
	ArrivalOther               *string      `json:"arrivalOther"`
	ArrivalLoads               []LoadInput  `json:"arrivalLoads" validate:"dive"`
	ArrivalCrates              []CrateInput `json:"arrivalCrates" validate:"dive"`
}

// ListRow is one course in listings; real times surface only as minute
// diffs.
type ListRow struct {
	ID                   int64      `json:"id"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt"`
	LocationID           string     `json:"locationId"`
	LocationName         *string    `json:"locationName"`
	Network              string     `json:"network"`
	CourseCode           string     `json:"courseCode"`
	DepartureDate        string     `json:"departureDate"`
	DeparturePlannedTime *string    `json:"departurePlannedTime"`
	ArrivalPlannedTime   *string    `json:"arrivalPlannedTime"`
	DepartureDiff        *int       `json:"departureDiff"`
	ArrivalDiff          *int       `json:"arrivalDiff"`
}

// LoadRow, CrateRow and FileRow are the child collections of a detail.
type LoadRow struct {
	ID                 int64    `json:"id" gorm:"column:id"`
	Group              string   `json:"group" gorm:"column:group"`
	TechnologicalGroup string   `json:"technologicalGroup" gorm:"column:technological_group"`
	Amount             *float64 `json:"amount" gorm:"column:amount"`
	Note               *string  `json:"note" gorm:"column:note"`
}

type CrateRow struct {
	ID                 int64   `json:"id" gorm:"column:id"`
	Group              string  `json:"group" gorm:"column:group"`
	TechnologicalGroup string  `json:"technologicalGroup" gorm:"column:technological_group"`
	Crate              string  `json:"crate" gorm:"column:crate"`
	Amount             float64 `json:"amount" gorm:"column:amount"`
}

type FileRow struct {
	ID          int64  `json:"id" gorm:"column:id"`
	Group       string `json:"group" gorm:"column:group"`
	Filename    string `json:"filename" gorm:"column:filename"`
	Type        string `json:"type" gorm:"column:type"`
	DisplayName string `json:"displayName" gorm:"column:display_name"`
}

// Detail is the full joined read of one course.
type Detail struct {
	ID                         int64      `json:"id"`
	CreatedBy                  string     `json:"createdBy"`
	UpdatedBy                  *string    `json:"updatedBy"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  *time.Time `json:"updatedAt"`
	LocationID                 string     `json:"locationId"`
	CourseCode                 string     `json:"courseCode"`
	DepartureDate              string     `json:"departureDate"`
	Network                    string     `json:"network"`
	TransporterEnumID          int64      `json:"transporterEnumId"`
	Seals                      *string    `json:"seals"`
	DeparturePlannedTime       *string    `json:"departurePlannedTime"`
	DepartureRealTime          *string    `json:"departureRealTime"`
	DepartureDelayReasonEnumID *int64     `json:"departureDelayReasonEnumId"`
	DepartureNote              *string    `json:"departureNote"`
	DepartureLoad              *float64   `json:"departureLoad"`
	DepartureOther             *string    `json:"departureOther"`
	ArrivalPlannedTime         *string    `json:"arrivalPlannedTime"`
	ArrivalRealTime            *string    `json:"arrivalRealTime"`
	ArrivalDelayReasonEnumID   *int64     `json:"arrivalDelayReasonEnumId"`
	ArrivalNote                *string    `json:"arrivalNote"`
	ArrivalLoad                *float64   `json:"arrivalLoad"`
	ArrivalOther               *string    `json:"arrivalOther"`
	CreatedByFullName          *string    `json:"createdByFullName"`
	UpdatedByFullName          *string    `json:"updatedByFullName"`
	LocationName               *string    `json:"locationName"`
	TransporterName            *string    `json:"transporterName"`
	DepartureDelayName         *string    `json:"departureDelayName"`
	ArrivalDelayName           *string    `json:"arrivalDelayName"`
	DepartureDiff              *int       `json:"departureDiff"`
	ArrivalDiff                *int       `json:"arrivalDiff"`
	Loads                      []LoadRow  `json:"loads"`
	Crates                     []CrateRow `json:"crates"`
	Files                      []FileRow  `json:"files"`
}

// TechGroupOption is a technological group with its permitted crates.
type TechGroupOption struct {
	Value  string   `json:"value"`
	Unit   string   `json:"unit"`
	Group  string   `json:"group"`
	Crates []string `json:"crates"`
}

// Meta feeds the course form: SPU locations, transporters, delay causes
// and the technological group catalog.
type Meta struct {
	Locations           []records.LocationOption `json:"locations"`
	Transporters        []records.EnumOption     `json:"transporters"`
	DelayReasons        []records.EnumOption     `json:"delayReasons"`
	TechnologicalGroups []TechGroupOption        `json:"technologicalGroups"`
}

// Service owns the course aggregate: header, loads, crates and attached
// files.
type Service struct {
	db    *db.Client
	store *files.Store
}

func NewService(client *db.Client, store *files.Store) *Service {
	return &Service{db: client, store: store}
}

func (s *Service) Meta(ctx context.Context) (*Meta, error) {
	conn := s.db.DB()

	locations, err := records.LocationOptions(ctx, conn, "SPU")
	if err != nil {
		return nil, err
	}
	options, err := records.EnumOptions(ctx, conn, enums.KeyTransporter, enums.KeyDelayCause)
	if err != nil {
		return nil, err
	}
	groups, err := s.techGroups(ctx)
	if err != nil {
		return nil, err
	}

	return &Meta{
		Locations:           locations,
		Transporters:        records.FilterEnumOptions(options, enums.KeyTransporter),
		DelayReasons:        records.FilterEnumOptions(options, enums.KeyDelayCause),
		TechnologicalGroups: groups,
	}, nil
}

func (s *Service) techGroups(ctx context.Context) ([]TechGroupOption, error) {
	var groups []models.TechnologicalGroup
	err := s.db.DB().WithContext(ctx).
		Order("value asc").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	var links []models.TechnologicalGroupCrate
	err = s.db.DB().WithContext(ctx).
		Order("technological_group asc, crate asc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	crates := make(map[string][]string, len(groups))
	for _, link := range links {
		crates[link.TechnologicalGroup] = append(crates[link.TechnologicalGroup], link.Crate)
	}

	out := make([]TechGroupOption, 0, len(groups))
	for _, g := range groups {
		opt := TechGroupOption{Value: g.Value, Unit: g.Unit, Group: g.Group, Crates: crates[g.Value]}
		if opt.Crates == nil {
			opt.Crates = []string{}
		}
		out = append(out, opt)
	}
	return out, nil
}

type listScan struct {
	ID                   int64      `gorm:"column:id"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            *time.Time `gorm:"column:updated_at"`
	LocationID           string     `gorm:"column:location_id"`
	LocationName         *string    `gorm:"column:location_name"`
	Network              string     `gorm:"column:network"`
	CourseCode           string     `gorm:"column:course_code"`
	DepartureDate        string     `gorm:"column:departure_date"`
	DeparturePlannedTime *string    `gorm:"column:departure_planned_time"`
	DepartureRealTime    *string    `gorm:"column:departure_real_time"`
	ArrivalPlannedTime   *string    `gorm:"column:arrival_planned_time"`
	ArrivalRealTime      *string    `gorm:"column:arrival_real_time"`
}

// FindMany lists courses newest first.
func (s *Service) FindMany(ctx context.Context, find paginate.Find) (*paginate.Page[ListRow], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.db.DB().WithContext(ctx).
		Table("course").
		Select(`course.id, course.created_at, course.updated_at, course.location_id,
			location.name AS location_name, course.network, course.course_code,
			course.departure_date, course.departure_planned_time, course.departure_real_time,
			course.arrival_planned_time, course.arrival_real_time`).
		Joins("LEFT JOIN location ON location.id = course.location_id").
		Order("course.created_at desc, course.id desc")

	if filter != nil {
		q, err = records.ApplyTimeRange(q, "course.created_at", filter.CreatedAt)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "course.location_id", filter.LocationID)
		q = records.ApplyIn(q, "course.network", filter.Network)
		if len(filter.DepartureDelay) == 1 {
			q = records.ApplyDelay(q, "course.departure_planned_time", "course.departure_real_time", filter.DepartureDelay[0] == "yes")
		}
		if len(filter.ArrivalDelay) == 1 {
			q = records.ApplyDelay(q, "course.arrival_planned_time", "course.arrival_real_time", filter.ArrivalDelay[0] == "yes")
		}
	}

	q = records.ApplySearch(q, find.Search, "location.name", "course.course_code")
	q = records.ApplyPage(q, find)

	var scans []listScan
	if err := q.Scan(&scans).Error; err != nil {
		return nil, err
	}

	rows := make([]ListRow, 0, len(scans))
	for _, sc := range scans {
		rows = append(rows, ListRow{
			ID:                   sc.ID,
			CreatedAt:            sc.CreatedAt,
			UpdatedAt:            sc.UpdatedAt,
			LocationID:           sc.LocationID,
			LocationName:         sc.LocationName,
			Network:              sc.Network,
			CourseCode:           sc.CourseCode,
			DepartureDate:        sc.DepartureDate,
			DeparturePlannedTime: sc.DeparturePlannedTime,
			ArrivalPlannedTime:   sc.ArrivalPlannedTime,
			DepartureDiff:        records.MinuteDiff(sc.DeparturePlannedTime, sc.DepartureRealTime),
			ArrivalDiff:          records.MinuteDiff(sc.ArrivalPlannedTime, sc.ArrivalRealTime),
		})
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

// GetOne reads the full aggregate.
func (s *Service) GetOne(ctx context.Context, id int64) (*Detail, error) {
	var course models.Course
	err := s.db.DB().WithContext(ctx).
		Where("id = ?", id).
		Take(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "course not found")
		}
		return nil, err
	}

	var names struct {
		CreatedByFullName  *string `gorm:"column:created_by_full_name"`
		UpdatedByFullName  *string `gorm:"column:updated_by_full_name"`
		LocationName       *string `gorm:"column:location_name"`
		TransporterName    *string `gorm:"column:transporter_name"`
		DepartureDelayName *string `gorm:"column:departure_delay_name"`
		ArrivalDelayName   *string `gorm:"column:arrival_delay_name"`
	}
	err = s.db.DB().WithContext(ctx).
		Table("course").
		Select(`creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name,
			transporter.name AS transporter_name,
			departure_delay.name AS departure_delay_name,
			arrival_delay.name AS arrival_delay_name`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = course.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = course.updated_by`).
		Joins("LEFT JOIN location ON location.id = course.location_id").
		Joins("LEFT JOIN enum_value AS transporter ON transporter.id = course.transporter_enum_id").
		Joins("LEFT JOIN enum_value AS departure_delay ON departure_delay.id = course.departure_delay_reason_enum_id").
		Joins("LEFT JOIN enum_value AS arrival_delay ON arrival_delay.id = course.arrival_delay_reason_enum_id").
		Where("course.id = ?", id).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}

	var loads []LoadRow
	if err := s.db.DB().WithContext(ctx).Table("course_load").Where("course_id = ?", id).Order("id asc").Scan(&loads).Error; err != nil {
		return nil, err
	}
	var crates []CrateRow
	if err := s.db.DB().WithContext(ctx).Table("course_crate").Where("course_id = ?", id).Order("id asc").Scan(&crates).Error; err != nil {
		return nil, err
	}
	var fileRows []FileRow
	if err := s.db.DB().WithContext(ctx).Table("course_file").Where("course_id = ?", id).Order("id asc").Scan(&fileRows).Error; err != nil {
		return nil, err
	}
	if loads == nil {
		loads = []LoadRow{}
	}
	if crates == nil {
		crates = []CrateRow{}
	}
	if fileRows == nil {
		fileRows = []FileRow{}
	}

	return &Detail{
		ID:                         course.ID,
		CreatedBy:                  course.CreatedBy,
		UpdatedBy:                  course.UpdatedBy,
		CreatedAt:                  course.CreatedAt,
		UpdatedAt:                  course.UpdatedAt,
		LocationID:                 course.LocationID,
		CourseCode:                 course.CourseCode,
		DepartureDate:              course.DepartureDate,
		Network:                    course.Network,
		TransporterEnumID:          course.TransporterEnumID,
		Seals:                      course.Seals,
		DeparturePlannedTime:       course.DeparturePlannedTime,
		DepartureRealTime:          course.DepartureRealTime,
		DepartureDelayReasonEnumID: course.DepartureDelayReasonEnumID,
		DepartureNote:              course.DepartureNote,
		DepartureLoad:              course.DepartureLoad,
		DepartureOther:             course.DepartureOther,
		ArrivalPlannedTime:         course.ArrivalPlannedTime,
		ArrivalRealTime:            course.ArrivalRealTime,
		ArrivalDelayReasonEnumID:   course.ArrivalDelayReasonEnumID,
		ArrivalNote:                course.ArrivalNote,
		ArrivalLoad:                course.ArrivalLoad,
		ArrivalOther:               course.ArrivalOther,
		CreatedByFullName:          names.CreatedByFullName,
		UpdatedByFullName:          names.UpdatedByFullName,
		LocationName:               names.LocationName,
		TransporterName:            names.TransporterName,
		DepartureDelayName:         names.DepartureDelayName,
		ArrivalDelayName:           names.ArrivalDelayName,
		DepartureDiff:              records.MinuteDiff(course.DeparturePlannedTime, course.DepartureRealTime),
		ArrivalDiff:                records.MinuteDiff(course.ArrivalPlannedTime, course.ArrivalRealTime),
		Loads:                      loads,
		Crates:                     crates,
		Files:                      fileRows,
	}, nil
}

func childLoads(courseID int64, input UpsertInput) []models.CourseLoad {
	var rows []models.CourseLoad
	for _, l := range input.DepartureLoads {
		rows = append(rows, models.CourseLoad{CourseID: courseID, Group: models.CourseGroupDeparture, TechnologicalGroup: l.TechnologicalGroup, Amount: l.Amount, Note: l.Note})
	}
	for _, l := range input.ArrivalLoads {
		rows = append(rows, models.CourseLoad{CourseID: courseID, Group: models.CourseGroupArrival, TechnologicalGroup: l.TechnologicalGroup, Amount: l.Amount, Note: l.Note})
	}
	return rows
}

func childCrates(courseID int64, input UpsertInput) []models.CourseCrate {
	var rows []models.CourseCrate
	for _, c := range input.DepartureCrates {
		rows = append(rows, models.CourseCrate{CourseID: courseID, Group: models.CourseGroupDeparture, TechnologicalGroup: c.TechnologicalGroup, Crate: c.Crate, Amount: c.Amount})
	}
	for _, c := range input.ArrivalCrates {
		rows = append(rows, models.CourseCrate{CourseID: courseID, Group: models.CourseGroupArrival, TechnologicalGroup: c.TechnologicalGroup, Crate: c.Crate, Amount: c.Amount})
	}
	return rows
}

// Create inserts the aggregate in one transaction and returns the joined
// read. Staged uploads persist inside the transaction so a failure
// leaves no dangling rows.
func (s *Service) Create(ctx context.Context, p *identity.Principal, input UpsertInput, uploads map[string][]*files.Upload) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	course := models.Course{
		CreatedBy:                  p.ID,
		LocationID:                 input.LocationID,
		CourseCode:                 input.CourseCode,
		DepartureDate:              input.DepartureDate,
		Network:                    input.Network,
		TransporterEnumID:          input.TransporterEnumID,
		Seals:                      input.Seals,
		DeparturePlannedTime:       input.DeparturePlannedTime,
		DepartureRealTime:          input.DepartureRealTime,
		DepartureDelayReasonEnumID: input.DepartureDelayReasonEnumID,
		DepartureNote:              input.DepartureNote,
		DepartureLoad:              input.DepartureLoad,
		DepartureOther:             input.DepartureOther,
		ArrivalPlannedTime:         input.ArrivalPlannedTime,
		ArrivalRealTime:            input.ArrivalRealTime,
		ArrivalDelayReasonEnumID:   input.ArrivalDelayReasonEnumID,
		ArrivalNote:                input.ArrivalNote,
		ArrivalLoad:                input.ArrivalLoad,
		ArrivalOther:               input.ArrivalOther,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		if err := records.InsertAll(tx, childLoads(course.ID, input)); err != nil {
			return err
		}
		if err := records.InsertAll(tx, childCrates(course.ID, input)); err != nil {
			return err
		}
		return s.attachFiles(tx, course.ID, uploads)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, course.ID)
}

// Update rewrites the header under the ownership predicate and replaces
// loads and crates wholesale. Files stay untouched here.
func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, input UpsertInput) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}
	scope := records.ScopeFor(p, identity.RoleDispecink)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"updated_by":                     p.ID,
			"updated_at":                     time.Now(),
			"location_id":                    input.LocationID,
			"course_code":                    input.CourseCode,
			"departure_date":                 input.DepartureDate,
			"network":                        input.Network,
			"transporter_enum_id":            input.TransporterEnumID,
			"seals":                          input.Seals,
			"departure_planned_time":         input.DeparturePlannedTime,
			"departure_real_time":            input.DepartureRealTime,
			"departure_delay_reason_enum_id": input.DepartureDelayReasonEnumID,
			"departure_note":                 input.DepartureNote,
			"departure_load":                 input.DepartureLoad,
			"departure_other":                input.DepartureOther,
			"arrival_planned_time":           input.ArrivalPlannedTime,
			"arrival_real_time":              input.ArrivalRealTime,
			"arrival_delay_reason_enum_id":   input.ArrivalDelayReasonEnumID,
			"arrival_note":                   input.ArrivalNote,
			"arrival_load":                   input.ArrivalLoad,
			"arrival_other":                  input.ArrivalOther,
		}
		if err := records.UpdateOwned(tx, &models.Course{}, id, scope, "location_id", updates); err != nil {
			return err
		}

		if err := records.DeleteChildren(tx, &models.CourseCrate{}, "course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.CourseLoad{}, "course_id", id); err != nil {
			return err
		}
		if err := records.InsertAll(tx, childLoads(id, input)); err != nil {
			return err
		}
		return records.InsertAll(tx, childCrates(id, input))
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id)
}

// Delete locks the owned header first, then removes children, file rows
// and the header. The on-disk files go only after the commit.
func (s *Service) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Course{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.CourseCrate{}, "course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.CourseLoad{}, "course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.CourseFile{}, "course_id", id); err != nil {
			return err
		}
		return records.DeleteOwned(tx, &models.Course{}, id, scope, "location_id")
	})
	if err != nil {
		return err
	}

	return s.store.RemoveGroup(fileGroup, strconv.FormatInt(id, 10))
}
