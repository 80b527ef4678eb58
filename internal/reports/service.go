package reports

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

const fileGroup = "regional_report"

// Filter is the strict listing filter. Attachment takes "yes" or "no"
// and matches reports with or without files.
type Filter struct {
	CreatedAt  *records.TimeRange `json:"createdAt"`
	LocationID []string           `json:"locationId"`
	Category   []string           `json:"category"`
	Network    []string           `json:"network"`
	Attachment []string           `json:"attachment"`
}

// UpsertInput carries one irregularity report.
type UpsertInput struct {
	DateFor              string  `json:"dateFor" validate:"required"`
	Category             string  `json:"category" validate:"required"`
	Network              string  `json:"network" validate:"required"`
	LocationID           string  `json:"locationId" validate:"required"`
	Description          string  `json:"description" validate:"required"`
	ActionTaken          *string `json:"actionTaken"`
	CourseCode           *string `json:"courseCode"`
	CoursePlannedArrival *string `json:"coursePlannedArrival"`
	CourseRealArrival    *string `json:"courseRealArrival"`
	CourseDelayEnumID    *int64  `json:"courseDelayEnumId"`
	Note                 *string `json:"note"`
}

// AttachmentRow names one stored file of a report.
type AttachmentRow struct {
	Filename    string `json:"filename" gorm:"column:filename"`
	DisplayName string `json:"displayName" gorm:"column:display_name"`
}

// ListRow is one report in listings, attachments reduced to a count.
type ListRow struct {
	ID                   int64      `json:"id" gorm:"column:id"`
	CreatedBy            string     `json:"createdBy" gorm:"column:created_by"`
	UpdatedBy            *string    `json:"updatedBy" gorm:"column:updated_by"`
	DateFor              string     `json:"dateFor" gorm:"column:date_for"`
	Category             string     `json:"category" gorm:"column:category"`
	Network              string     `json:"network" gorm:"column:network"`
	LocationID           string     `json:"locationId" gorm:"column:location_id"`
	Description          string     `json:"description" gorm:"column:description"`
	ActionTaken          *string    `json:"actionTaken" gorm:"column:action_taken"`
	CourseCode           *string    `json:"courseCode" gorm:"column:course_code"`
	CoursePlannedArrival *string    `json:"coursePlannedArrival" gorm:"column:course_planned_arrival"`
	CourseRealArrival    *string    `json:"courseRealArrival" gorm:"column:course_real_arrival"`
	CourseDelayEnumID    *int64     `json:"courseDelayEnumId" gorm:"column:course_delay_enum_id"`
	Note                 *string    `json:"note" gorm:"column:note"`
	CreatedAt            time.Time  `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt            *time.Time `json:"updatedAt" gorm:"column:updated_at"`
	CreatedByFullName    *string    `json:"createdByFullName" gorm:"column:created_by_full_name"`
	UpdatedByFullName    *string    `json:"updatedByFullName" gorm:"column:updated_by_full_name"`
	LocationName         *string    `json:"locationName" gorm:"column:location_name"`
	LocationZip          *string    `json:"locationZip" gorm:"column:location_zip"`
	CourseDelayName      *string    `json:"courseDelayName" gorm:"column:course_delay_name"`
	Attachments          int64      `json:"attachments" gorm:"column:attachments"`
}

// Detail is a report with its attachment names.
type Detail struct {
	ListRow
	Attachments []AttachmentRow `json:"attachments"`
}

// Meta feeds the report form.
type Meta struct {
	Locations    []records.LocationOption `json:"locations"`
	DelayReasons []records.EnumOption     `json:"delayReasons"`
}

// Service owns regional irregularity reports. Reads are scoped by
// location grants too, unlike the dispatcher records.
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
	options, err := records.EnumOptions(ctx, conn, enums.KeyDelayCause)
	if err != nil {
		return nil, err
	}

	return &Meta{Locations: locations, DelayReasons: options}, nil
}

func (s *Service) base(ctx context.Context, scope records.Scope) *gorm.DB {
	q := s.db.DB().WithContext(ctx).
		Table("regional_report").
		Select(`regional_report.*,
			creator.full_name AS created_by_full_name,
			updater.full_name AS updated_by_full_name,
			location.name AS location_name,
			location.zip AS location_zip,
			delay.name AS course_delay_name,
			(SELECT COUNT(*) FROM regional_report_file
				WHERE regional_report_file.regional_report_id = regional_report.id) AS attachments`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = regional_report.created_by`).
		Joins(`LEFT JOIN "user" AS updater ON updater.id = regional_report.updated_by`).
		Joins("LEFT JOIN location ON location.id = regional_report.location_id").
		Joins("LEFT JOIN enum_value AS delay ON delay.id = regional_report.course_delay_enum_id")
	return scope.Where(q, "regional_report.location_id")
}

// FindMany lists visible reports newest first.
func (s *Service) FindMany(ctx context.Context, p *identity.Principal, find paginate.Find) (*paginate.Page[ListRow], error) {
	filter, err := paginate.DecodeFilter[Filter](find)
	if err != nil {
		return nil, err
	}

	scope := records.ScopeFor(p, identity.RoleRegLogistika)
	q := s.base(ctx, scope).Order("regional_report.created_at desc, regional_report.id desc")

	if filter != nil {
		q, err = records.ApplyTimeRange(q, "regional_report.created_at", filter.CreatedAt)
		if err != nil {
			return nil, err
		}
		q = records.ApplyIn(q, "regional_report.location_id", filter.LocationID)
		q = records.ApplyIn(q, "regional_report.category", filter.Category)
		q = records.ApplyIn(q, "regional_report.network", filter.Network)
		if len(filter.Attachment) == 1 {
			if filter.Attachment[0] == "yes" {
				q = q.Where("EXISTS (SELECT 1 FROM regional_report_file WHERE regional_report_file.regional_report_id = regional_report.id)")
			} else {
				q = q.Where("NOT EXISTS (SELECT 1 FROM regional_report_file WHERE regional_report_file.regional_report_id = regional_report.id)")
			}
		}
	}

	q = records.ApplySearch(q, find.Search, "location.name", "location.zip")
	q = records.ApplyPage(q, find)

	var rows []ListRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	page := paginate.NewPage(rows, find)
	return &page, nil
}

// GetOne reads one visible report with its attachment names. An
// out-of-scope id reads as missing.
func (s *Service) GetOne(ctx context.Context, p *identity.Principal, id int64) (*Detail, error) {
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	var row ListRow
	err := s.base(ctx, scope).Where("regional_report.id = ?", id).Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "report not found")
		}
		return nil, err
	}

	var attachments []AttachmentRow
	err = s.db.DB().WithContext(ctx).
		Table("regional_report_file").
		Where("regional_report_id = ?", id).
		Order("display_name asc").
		Scan(&attachments).Error
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []AttachmentRow{}
	}

	return &Detail{ListRow: row, Attachments: attachments}, nil
}

func (s *Service) attachFiles(tx *gorm.DB, reportID int64, uploads []*files.Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	rows := make([]models.RegionalReportFile, 0, len(uploads))
	for _, u := range uploads {
		rows = append(rows, models.RegionalReportFile{
			RegionalReportID: reportID,
			Filename:         u.Filename,
			Type:             u.Type,
			DisplayName:      u.DisplayName,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	return s.store.Persist(fileGroup, strconv.FormatInt(reportID, 10), uploads)
}

func (s *Service) Create(ctx context.Context, p *identity.Principal, input UpsertInput, uploads []*files.Upload) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleRegLogistika, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}

	report := models.RegionalReport{
		CreatedBy:            p.ID,
		DateFor:              input.DateFor,
		Category:             input.Category,
		Network:              input.Network,
		LocationID:           input.LocationID,
		Description:          input.Description,
		ActionTaken:          input.ActionTaken,
		CourseCode:           input.CourseCode,
		CoursePlannedArrival: input.CoursePlannedArrival,
		CourseRealArrival:    input.CourseRealArrival,
		CourseDelayEnumID:    input.CourseDelayEnumID,
		Note:                 input.Note,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		return s.attachFiles(tx, report.ID, uploads)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, p, report.ID)
}

// Update rewrites the header; attachments stay untouched here.
func (s *Service) Update(ctx context.Context, p *identity.Principal, id int64, input UpsertInput) (*Detail, error) {
	if !p.CanUseLocation(identity.RoleRegLogistika, input.LocationID) {
		return nil, errors.New(errors.CodeForbidden, "location not granted")
	}
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	updates := map[string]any{
		"updated_by":             p.ID,
		"updated_at":             time.Now(),
		"date_for":               input.DateFor,
		"category":               input.Category,
		"network":                input.Network,
		"location_id":            input.LocationID,
		"description":            input.Description,
		"action_taken":           input.ActionTaken,
		"course_code":            input.CourseCode,
		"course_planned_arrival": input.CoursePlannedArrival,
		"course_real_arrival":    input.CourseRealArrival,
		"course_delay_enum_id":   input.CourseDelayEnumID,
		"note":                   input.Note,
	}
	err := records.UpdateOwned(s.db.DB().WithContext(ctx), &models.RegionalReport{}, id, scope, "location_id", updates)
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, p, id)
}

func (s *Service) Delete(ctx context.Context, p *identity.Principal, id int64) error {
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.RegionalReport{}, id, scope, "location_id"); err != nil {
			return err
		}
		if err := records.DeleteChildren(tx, &models.RegionalReportFile{}, "regional_report_id", id); err != nil {
			return err
		}
		return records.DeleteOwned(tx, &models.RegionalReport{}, id, scope, "location_id")
	})
	if err != nil {
		return err
	}

	return s.store.RemoveGroup(fileGroup, strconv.FormatInt(id, 10))
}

// AddFiles attaches new uploads to a visible report.
func (s *Service) AddFiles(ctx context.Context, p *identity.Principal, id int64, uploads []*files.Upload) (*Detail, error) {
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.RegionalReport{}, id, scope, "location_id"); err != nil {
			return err
		}
		return s.attachFiles(tx, id, uploads)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, p, id)
}

// RemoveFiles detaches the named files from a visible report.
func (s *Service) RemoveFiles(ctx context.Context, p *identity.Principal, id int64, filenames []string) (*Detail, error) {
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	var removed map[string]string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.RegionalReport{}, id, scope, "location_id"); err != nil {
			return err
		}

		var rows []models.RegionalReportFile
		err := tx.Where("regional_report_id = ? AND filename IN ?", id, filenames).Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return errors.New(errors.CodeForbidden, "file not reachable")
		}

		res := tx.Where("regional_report_id = ? AND filename IN ?", id, filenames).Delete(&models.RegionalReportFile{})
		if res.Error != nil {
			return res.Error
		}

		removed = make(map[string]string, len(rows))
		for _, r := range rows {
			removed[r.Filename] = r.DisplayName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Remove(fileGroup, strconv.FormatInt(id, 10), removed); err != nil {
		return nil, err
	}
	return s.GetOne(ctx, p, id)
}

// ReadFile returns one attachment's bytes with its stored content type.
// Visibility follows the caller's grants.
func (s *Service) ReadFile(ctx context.Context, p *identity.Principal, id int64, filename string) ([]byte, string, error) {
	scope := records.ScopeFor(p, identity.RoleRegLogistika)

	q := s.db.DB().WithContext(ctx).
		Table("regional_report_file").
		Select("regional_report_file.*").
		Joins("LEFT JOIN regional_report ON regional_report.id = regional_report_file.regional_report_id").
		Where("regional_report_file.regional_report_id = ? AND regional_report_file.filename = ?", id, filename)
	q = scope.Where(q, "regional_report.location_id")

	var row models.RegionalReportFile
	if err := q.Take(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", errors.New(errors.CodeForbidden, "file not reachable")
		}
		return nil, "", err
	}

	data, err := s.store.Read(fileGroup, strconv.FormatInt(id, 10), row.Filename, row.DisplayName)
	if err != nil {
		return nil, "", err
	}
	return data, row.Type, nil
}
