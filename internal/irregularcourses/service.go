package irregularcourses

import (
	"context"
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

// Filter is the strict listing filter. Load accepts "empty" and
// "filled"; a single value narrows on the load column being null or
// not.
type Filter struct {
	CreatedAt  *records.TimeRange `json:"createdAt"`
	LocationID []string           `json:"locationId"`
	Network    []string           `json:"network"`
	Load       []string           `json:"load"`
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

// UpsertInput carries the full irregular course payload. Plates and
// stop names are free text resolved to registry values on write.
type UpsertInput struct {
	LocationID      string       `json:"locationId" validate:"required"`
	InitialStop     string       `json:"initialStop" validate:"required"`
	InitialStopDate string       `json:"initialStopDate" validate:"required"`
	InitialStopTime string       `json:"initialStopTime" validate:"required"`
	FinalStop       string       `json:"finalStop" validate:"required"`
	FinalStopDate   string       `json:"finalStopDate" validate:"required"`
	FinalStopTime   string       `json:"finalStopTime" validate:"required"`
	Network         string       `json:"network" validate:"required,oneof=hps obps ups"`
	Transporter     string       `json:"transporter" validate:"required"`
	VehiclePlate    string       `json:"vehiclePlate" validate:"required"`
	TrailerPlate    *string      `json:"trailerPlate"`
	Distance        *float64     `json:"distance"`
	Note            *string      `json:"note"`
	OtherLoad       *string      `json:"otherLoad"`
	Load            *float64     `json:"load"`
	Stops           []string     `json:"stops"`
	Loads           []LoadInput  `json:"loads" validate:"dive"`
	Crates          []CrateInput `json:"crates" validate:"dive"`
}

// StopRow is one intermediate stop of the run, ordered by sequence.
type StopRow struct {
	Sequence   int    `json:"sequence"`
	StopEnumID int64  `json:"stopEnumId"`
	Name       string `json:"name"`
}

// LoadRow is one load figure of the run.
type LoadRow struct {
	TechnologicalGroup string   `json:"technologicalGroup" gorm:"column:technological_group"`
	Amount             *float64 `json:"amount" gorm:"column:amount"`
	Note               *string  `json:"note" gorm:"column:note"`
}

// CrateRow is one crate count of the run.
type CrateRow struct {
	TechnologicalGroup string  `json:"technologicalGroup" gorm:"column:technological_group"`
	Crate              string  `json:"crate" gorm:"column:crate"`
	Amount             float64 `json:"amount" gorm:"column:amount"`
}

// ListRow is one irregular course in listings. Intermediate stops
// surface as a count only.
type ListRow struct {
	ID                int64      `json:"id"`
	CreatedBy         string     `json:"createdBy"`
	UpdatedBy         *string    `json:"updatedBy"`
	LocationID        string     `json:"locationId"`
	InitialStop       string     `json:"initialStop"`
	InitialStopDate   string     `json:"initialStopDate"`
	InitialStopTime   string     `json:"initialStopTime"`
	FinalStop         string     `json:"finalStop"`
	FinalStopDate     string     `json:"finalStopDate"`
	FinalStopTime     string     `json:"finalStopTime"`
	Network           string     `json:"network"`
	Transporter       string     `json:"transporter"`
	VehiclePlate      int64      `json:"vehiclePlate"`
	TrailerPlate      *int64     `json:"trailerPlate"`
	Distance          *float64   `json:"distance"`
	Note              *string    `json:"note"`
	OtherLoad         *string    `json:"otherLoad"`
	Load              *float64   `json:"load"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt"`
	CreatedByFullName *string    `json:"createdByFullName"`
	UpdatedByFullName *string    `json:"updatedByFullName"`
	LocationName      *string    `json:"locationName"`
	InitialStopName   *string    `json:"initialStopName"`
	FinalStopName     *string    `json:"finalStopName"`
	StopsCount        int64      `json:"stopsCount"`
}

// Detail is the single-record read with resolved plate names and
// children.
type Detail struct {
	ListRow
	VehiclePlateName *string    `json:"vehiclePlateName"`
	TrailerPlateName *string    `json:"trailerPlateName"`
	Stops            []StopRow  `json:"stops"`
	Loads            []LoadRow  `json:"loads"`
	Crates           []CrateRow `json:"crates"`
}

// TechGroupOption is a technological group with its permitted crates.
type TechGroupOption struct {
	Value  string   `json:"value"`
	Unit   string   `json:"unit"`
	Group  string   `json:"group"`
	Crates []string `json:"crates"`
}

// Meta feeds the irregular course form. Stop locations include depots
// on top of the dispatch centers.
type Meta struct {
	Locations           []records.LocationOption `json:"locations"`
	StopLocations       []records.LocationOption `json:"stopLocations"`
	Stops               []records.EnumOption     `json:"stops"`
	Transporters        []records.EnumOption     `json:"transporters"`
	VehiclePlates       []records.EnumOption     `json:"vehiclePlates"`
	TrailerPlates       []records.EnumOption     `json:"trailerPlates"`
	TechnologicalGroups []TechGroupOption        `json:"technologicalGroups"`
}

// Service owns irregular courses with their stops, loads and crate
// counts.
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
	stopLocations, err := records.LocationOptions(ctx, conn, "SPU", "DEPO")
	if err != nil {
		return nil, err
	}
	options, err := records.EnumOptions(ctx, conn,
		enums.KeyStop, enums.KeyTransporter, enums.KeyVehiclePlate, enums.KeyTrailerPlate)
	if err != nil {
		return nil, err
	}
	groups, err := s.techGroups(ctx)
	if err != nil {
		return nil, err
	}

	return &Meta{
		Locations:           locations,
		StopLocations:       stopLocations,
		Stops:               records.FilterEnumOptions(options, enums.KeyStop),
		Transporters:        records.FilterEnumOptions(options, enums.KeyTransporter),
		VehiclePlates:       records.FilterEnumOptions(options, enums.KeyVehiclePlate),
		TrailerPlates:       records.FilterEnumOptions(options, enums.KeyTrailerPlate),
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
	linked := make(map[string][]string)
	for _, link := range links {
		linked[link.TechnologicalGroup] = append(linked[link.TechnologicalGroup], link.Crate)
	}

	out := make([]TechGroupOption, 0, len(groups))
	for _, g := range groups {
		opt := TechGroupOption{Value: g.Value, Unit: g.Unit, Group: g.Group, Crates: linked[g.Value]}
		if opt.Crates == nil {
			opt.Crates = []string{}
		}
		out = append(out, opt)
	}
	return out, nil
}

type listScan struct {
	ID                int64      `gorm:"column:id"`
	CreatedBy         string     `gorm:"column:created_by"`
	UpdatedBy         *string    `gorm:"column:updated_by"`
	LocationID        string     `gorm:"column:location_id"`
	InitialStop       string     `gorm:"column:initial_stop"`
	InitialStopDate   string     `gorm:"column:initial_stop_date"`
	InitialStopTime   string     `gorm:"column:initial_stop_time"`
	FinalStop         string     `gorm:"column:final_stop"`
	FinalStopDate     string     `gorm:"column:final_stop_date"`
	FinalStopTime     string     `gorm:"column:final_stop_time"`
	Network           string     `gorm:"column:network"`
	Transporter       string     `gorm:"column:transporter"`
	VehiclePlate      int64      `gorm:"column:vehicle_plate"`
	TrailerPlate      *int64     `gorm:"column:trailer_plate"`
	Distance          *float64   `gorm:"column:distance"`
	Note              *string    `gorm:"column:note"`
	OtherLoad         *string    `gorm:"column:other_load"`
	Load              *float64   `gorm:"column:load"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         *time.Time `gorm:"column:updated_at"`
	CreatedByFullName *string    `gorm:"column:created_by_full_name"`
	UpdatedByFullName *string    `gorm:"column:updated_by_full_name"`
	LocationName      *string    `gorm:"column:location_name"`
	InitialStopName   *string    `gorm:"column:initial_stop_name"`
	FinalStopName     *string    `gorm:"column:final_stop_name"`
	StopsCount        int64      `gorm:"column:stops_count"`
}

func (sc listScan) row() ListRow {
	return ListRow{
		ID:                sc.ID,
		CreatedBy:         sc.CreatedBy,
		UpdatedBy:         sc.UpdatedBy,
		LocationID:        sc.LocationID,
		InitialStop:       sc.InitialStop,
		InitialStopDate:   sc.InitialStopDate,
		InitialStopTime:   sc.InitialStopTime,
		FinalStop:         sc.FinalStop,
		FinalStopDate:     sc.FinalStopDate,
		FinalStopTime:     sc.FinalStopTime,
		Network:           sc.Network,
		Transporter:       sc.Transporter,
		VehiclePlate:      sc.VehiclePlate,
		TrailerPlate:      sc.TrailerPlate,
		Distance:          sc.Distance,
		Note:              sc.Note,
		OtherLoad:         sc.OtherLoad,
		Load:              sc.Load,
		CreatedAt:         sc.CreatedAt,
		UpdatedAt:         sc.UpdatedAt,
		CreatedByFullName: sc.CreatedByFullName,
		UpdatedByFullName: sc.UpdatedByFullName,
		LocationName:      sc.LocationName,
		InitialStopName:   sc.InitialStopName,
		FinalStopName:     sc.FinalStopName,
		StopsCount:        sc.StopsCount,
	}
}

func (s *Service) base(ctx context.Context) *gorm.DB {
	return s.db.DB().WithContext(ctx).
		Table("irregular_course").
		Select(`irregular_course.*,
			creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name,
			initial_stop_loc.name AS initial_stop_name,
			final_stop_loc.name AS final_stop_name,
			(SELECT COUNT(*) FROM irregular_course_stop
				WHERE irregular_course_stop.irregular_course_id = irregular_course.id) AS stops_count`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = irregular_course.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = irregular_course.updated_by`).
		Joins("LEFT JOIN location ON location.id = irregular_course.location_id").
		Joins("LEFT JOIN location AS initial_stop_loc ON initial_stop_loc.id = irregular_course.initial_stop").
		Joins("LEFT JOIN location AS final_stop_loc ON final_stop_loc.id = irregular_course.final_stop")
}

// FindMany lists irregular courses newest first.
func (s *Service) FindMany(ctx context.Context, find paginate.Find) (*paginate.Page[ListRow], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	q := s.base(ctx).Order("irregular_course.created_at desc, irregular_course.id desc")

	if filter != nil {
		q, err = records.ApplyTimeRange(q, "irregular_course.created_at", filter.CreatedAt)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "irregular_course.location_id", filter.LocationID)
		q = records.ApplyIn(q, "irregular_course.network", filter.Network)
		if len(filter.Load) == 1 {
			if filter.Load[0] == "empty" {
				q = q.Where(`irregular_course."load" IS NULL`)
			} else {
				q = q.Where(`irregular_course."load" IS NOT NULL`)
			}
		}
	}

	q = records.ApplySearch(q, find.Search,
		"location.name", "irregular_course.network", "initial_stop_loc.name", "final_stop_loc.name")
	q = records.ApplyPage(q, find)

	var scans []listScan
	if err := q.Scan(&scans).Error; err != nil {
		return nil, err
	}

	rows := make([]ListRow, 0, len(scans))
	for _, sc := range scans {
		rows = append(rows, sc.row())
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

// stopRows loads the ordered stops of the given courses with their
// registry names.
func (s *Service) stopRows(ctx context.Context, ids []int64) (map[int64][]StopRow, error) {
	type stopScan struct {
		IrregularCourseID int64  `gorm:"column:irregular_course_id"`
		Sequence          int    `gorm:"column:sequence"`
		StopEnumID        int64  `gorm:"column:stop_enum_id"`
		Name              string `gorm:"column:name"`
	}
	var scans []stopScan
	err := s.db.DB().WithContext(ctx).
		Table("irregular_course_stop").
		Select("irregular_course_stop.*, enum_value.name AS name").
		Joins("LEFT JOIN enum_value ON enum_value.id = irregular_course_stop.stop_enum_id").
		Where("irregular_course_stop.irregular_course_id IN ?", ids).
		Order("irregular_course_stop.irregular_course_id asc, irregular_course_stop.sequence asc").
		Scan(&scans).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]StopRow, len(ids))
	for _, sc := range scans {
		out[sc.IrregularCourseID] = append(out[sc.IrregularCourseID],
			StopRow{Sequence: sc.Sequence, StopEnumID: sc.StopEnumID, Name: sc.Name})
	}
	return out, nil
}

func (s *Service) enumNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	type nameScan struct {
		ID   int64  `gorm:"column:id"`
		Name string `gorm:"column:name"`
	}
	var scans []nameScan
	err := s.db.DB().WithContext(ctx).
		Table("enum_value").
		Select("id, name").
		Where("id IN ?", ids).
		Scan(&scans).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range scans {
		out[sc.ID] = sc.Name
	}
	return out, nil
}

func (s *Service) GetOne(ctx context.Context, id int64) (*Detail, error) {
	var scan listScan
	err := s.base(ctx).Where("irregular_course.id = ?", id).Take(&scan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "irregular course not found")
		}
		return nil, err
	}

	plateIDs := []int64{scan.VehiclePlate}
	if scan.TrailerPlate != nil {
		plateIDs = append(plateIDs, *scan.TrailerPlate)
	}
	names, err := s.enumNames(ctx, plateIDs)
	if err != nil {
		return nil, err
	}

	stops, err := s.stopRows(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	var loads []LoadRow
	err = s.db.DB().WithContext(ctx).
		Table("irregular_course_load").
		Where("irregular_course_id = ?", id).
		Order("id asc").
		Scan(&loads).Error
	if err != nil {
		return nil, err
	}
	var crates []CrateRow
	err = s.db.DB().WithContext(ctx).
		Table("irregular_course_crate").
		Where("irregular_course_id = ?", id).
		Order("id asc").
		Scan(&crates).Error
	if err != nil {
		return nil, err
	}

	detail := Detail{ListRow: scan.row(), Stops: stops[id], Loads: loads, Crates: crates}
	if detail.Stops == nil {
		detail.Stops = []StopRow{}
	}
	if detail.Loads == nil {
		detail.Loads = []LoadRow{}
	}
	if detail.Crates == nil {
		detail.Crates = []CrateRow{}
	}
	if name, ok := names[scan.VehiclePlate]; ok {
		detail.VehiclePlateName = &name
	}
	if scan.TrailerPlate != nil {
		if name, ok := names[*scan.TrailerPlate]; ok {
			detail.TrailerPlateName = &name
		}
	}
	return &detail, nil
}

func stopModels(courseID int64, stops []string, ids map[string]int64) []models.IrregularCourseStop {
	rows := make([]models.IrregularCourseStop, 0, len(stops))
	for _, name := range stops {
		rows = append(rows, models.IrregularCourseStop{
			IrregularCourseID: courseID,
			Sequence:          len(rows),
			StopEnumID:        ids[name],
		})
	}
	return rows
}

func loadModels(courseID int64, loads []LoadInput) []models.IrregularCourseLoad {
	rows := make([]models.IrregularCourseLoad, 0, len(loads))
	for _, l := range loads {
		rows = append(rows, models.IrregularCourseLoad{
			IrregularCourseID:  courseID,
			TechnologicalGroup: l.TechnologicalGroup,
			Amount:             l.Amount,
			Note:               l.Note,
		})
	}
	return rows
}

func crateModels(courseID int64, crates []CrateInput) []models.IrregularCourseCrate {
	rows := make([]models.IrregularCourseCrate, 0, len(crates))
	for _, c := range crates {
		rows = append(rows, models.IrregularCourseCrate{
			IrregularCourseID:  courseID,
			TechnologicalGroup: c.TechnologicalGroup,
			Crate:              c.Crate,
			Amount:             c.Amount,
		})
	}
	return rows
}

func namedStops(stops []string) []string {
	out := make([]string, 0, len(stops))
	for _, name := range stops {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (s *Service) Create(ctx context.Context, p *identity.Principal, input UpsertInput) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	stops := namedStops(input.Stops)
	course := models.IrregularCourse{
		CreatedBy:       p.ID,
		LocationID:      input.LocationID,
		InitialStop:     input.InitialStop,
		InitialStopDate: input.InitialStopDate,
		InitialStopTime: input.InitialStopTime,
		FinalStop:       input.FinalStop,
		FinalStopDate:   input.FinalStopDate,
		FinalStopTime:   input.FinalStopTime,
		Network:         input.Network,
		Transporter:     input.Transporter,
		Distance:        input.Distance,
		Note:            input.Note,
		OtherLoad:       input.OtherLoad,
		Load:            input.Load,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ids, err := enums.PrepareImplicit(tx, p.ID, enums.ImplicitInput{
			VehiclePlate: input.VehiclePlate,
			TrailerPlate: input.TrailerPlate,
			Stops:        stops,
		})
		if err != nil {
			return err
		}
		course.VehiclePlate = ids.VehiclePlate
		course.TrailerPlate = ids.TrailerPlate

		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		if err := records.InsertAll(tx, stopModels(course.ID, stops, ids.Stops)); err != nil {
			return err
		}
		if err := records.InsertAll(tx, loadModels(course.ID, input.Loads)); err != nil {
			return err
		}
		return records.InsertAll(tx, crateModels(course.ID, input.Crates))
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, course.ID)
}

func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, input UpsertInput) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleDispecink, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}
	scope := records.ScopeFor(p, identity.RoleDispecink)
	stops := namedStops(input.Stops)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ids, err := enums.PrepareImplicit(tx, p.ID, enums.ImplicitInput{
			VehiclePlate: input.VehiclePlate,
			TrailerPlate: input.TrailerPlate,
			Stops:        stops,
		})
		if err != nil {
			return err
		}

		updates := map[string]any{
			"updated_by":        p.ID,
			"updated_at":        time.Now(),
			"location_id":       input.LocationID,
			"initial_stop":      input.InitialStop,
			"initial_stop_date": input.InitialStopDate,
			"initial_stop_time": input.InitialStopTime,
			"final_stop":        input.FinalStop,
			"final_stop_date":   input.FinalStopDate,
			"final_stop_time":   input.FinalStopTime,
			"network":           input.Network,
			"transporter":       input.Transporter,
			"vehicle_plate":     ids.VehiclePlate,
			"trailer_plate":     ids.TrailerPlate,
			"distance":          input.Distance,
			"note":              input.Note,
			"other_load":        input.OtherLoad,
			"load":              input.Load,
		}
		if err := records.UpdateOwned(tx, &models.IrregularCourse{}, id, scope, "location_id", updates); err != nil {
			return err
		}

		if err := records.DeleteChildren(tx, &models.IrregularCourseCrate{}, "irregular_course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.IrregularCourseLoad{}, "irregular_course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.IrregularCourseStop{}, "irregular_course_id", id); err != nil {
			return err
		}
		if err := records.InsertAll(tx, stopModels(id, stops, ids.Stops)); err != nil {
			return err
		}
		if err := records.InsertAll(tx, loadModels(id, input.Loads)); err != nil {
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
		if err := records.LockOwned(tx, &models.IrregularCourse{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.IrregularCourseCrate{}, "irregular_course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.IrregularCourseLoad{}, "irregular_course_id", id); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.IrregularCourseStop{}, "irregular_course_id", id); err != nil {
			return err
		}
		return records.DeleteOwned(tx, &models.IrregularCourse{}, id, scope, "location_id")
	})
}
