package locations

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one location as exposed to pickers and listings.
type Row struct {
	ID             string  `json:"id" gorm:"column:id"`
	Zip            string  `json:"zip" gorm:"column:zip"`
	Name           string  `json:"name" gorm:"column:name"`
	Region         string  `json:"region" gorm:"column:region"`
	RegionOrg      string  `json:"regionOrg" gorm:"column:region_org"`
	SpuName        *string `json:"spuName" gorm:"column:spu_name"`
	PostOfficeType string  `json:"postOfficeType" gorm:"column:post_office_type"`
}

// GrantRow is one of the caller's location grants.
type GrantRow struct {
	Role         string `json:"role" gorm:"column:role"`
	LocationID   string `json:"locationId" gorm:"column:location_id"`
	LocationName string `json:"locationName" gorm:"column:location_name"`
	Zip          string `json:"zip" gorm:"column:zip"`
}

// RequestRow is one pending grant request.
type RequestRow struct {
	UserID        string    `json:"userId" gorm:"column:user_id"`
	UserName      *string   `json:"userName" gorm:"column:user_name"`
	Role          string    `json:"role" gorm:"column:role"`
	LocationID    string    `json:"locationId" gorm:"column:location_id"`
	LocationName  string    `json:"locationName" gorm:"column:location_name"`
	Zip           string    `json:"zip" gorm:"column:zip"`
	TimeRequested time.Time `json:"timeRequested" gorm:"column:time_requested"`
}

// Decision is one entry of an admin's batch review.
type Decision struct {
	UserID     string `json:"userId" validate:"required"`
	LocationID string `json:"locationId" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Approved   bool   `json:"approved"`
}

// Service covers location listings and the grant request workflow.
type Service struct {
	db *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{db: client}
}

// FindAll lists every synchronized location, ordered by name.
func (s *Service) FindAll(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := s.db.DB().WithContext(ctx).
		Table("location").
		Where("post_office_type IN ?", []string{"SPU", "DEPO"}).
		Order("name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// MyGrants lists the caller's location grants with location names.
func (s *Service) MyGrants(ctx context.Context, userID string) ([]GrantRow, error) {
	var rows []GrantRow
	err := s.db.DB().WithContext(ctx).
		Table("user_location").
		Select("user_location.role, user_location.location_id, location.name AS location_name, location.zip").
		Joins("JOIN location ON location.id = user_location.location_id").
		Where("user_location.user_id = ?", userID).
		Order("user_location.role asc, location.name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []GrantRow{}
	}
	return rows, nil
}

// MyRequests lists the caller's pending grant requests.
func (s *Service) MyRequests(ctx context.Context, userID string) ([]RequestRow, error) {
	return s.listRequests(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("location_request.user_id = ?", userID)
	})
}

// RequestsForAdmin lists pending requests under the roles the principal
// administers.
func (s *Service) RequestsForAdmin(ctx context.Context, p *identity.Principal) ([]RequestRow, error) {
	if len(p.AdminOf) == 0 {
		return []RequestRow{}, nil
	}
	return s.listRequests(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("location_request.role IN ?", p.AdminOf)
	})
}

func (s *Service) listRequests(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]RequestRow, error) {
	q := s.db.DB().WithContext(ctx).
		Table("location_request").
		Select(`location_request.user_id, requester.full_name AS user_name,
			location_request.role, location_request.location_id,
			location.name AS location_name, location.zip,
			location_request.time_requested`).
		Joins("JOIN location ON location.id = location_request.location_id").
		Joins(`LEFT JOIN "user" AS requester ON requester.id = location_request.user_id`).
		Order("location_request.time_requested asc")
	q = scope(q)

	var rows []RequestRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []RequestRow{}
	}
	return rows, nil
}

// CreateRequest files a grant request for the caller. Re-requesting the
// same tuple is a no-op.
func (s *Service) CreateRequest(ctx context.Context, userID, role, locationID string) error {
	if role != identity.RoleDispecink && role != identity.RoleRegLogistika {
		return errors.New(errors.CodeValidation, "unknown role")
	}

	var loc models.Location
	err := s.db.DB().WithContext(ctx).
		Select("id").
		Where("id = ?", locationID).
		Take(&loc).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "location not found")
		}
		return err
	}

	req := models.LocationRequest{
		UserID:     userID,
		LocationID: locationID,
		Role:       role,
	}
	return s.db.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&req).Error
}

// DeleteRequest withdraws one of the caller's own requests.
func (s *Service) DeleteRequest(ctx context.Context, userID, role, locationID string) error {
	res := s.db.DB().WithContext(ctx).
		Where("user_id = ? AND role = ? AND location_id = ?", userID, role, locationID).
		Delete(&models.LocationRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "request not found")
	}
	return nil
}

// Decide resolves a batch of requests in one transaction. The caller
// must administer every role in the batch or nothing happens; approved
// entries become grants (re-granting is a no-op) and every listed
// request is removed either way.
func (s *Service) Decide(ctx context.Context, p *identity.Principal, decisions []Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	for _, d := range decisions {
		if !p.IsAdminOf(d.Role) {
			return errors.New(errors.CodeForbidden, "role not administered")
		}
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var grants []models.UserLocation
		for _, d := range decisions {
			if d.Approved {
				grants = append(grants, models.UserLocation{
					UserID:     d.UserID,
					LocationID: d.LocationID,
					Role:       d.Role,
				})
			}
		}
		if len(grants) > 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&grants).Error
			if err != nil {
				return err
			}
		}

		for _, d := range decisions {
			err := tx.Where("user_id = ? AND role = ? AND location_id = ?", d.UserID, d.Role, d.LocationID).
				Delete(&models.LocationRequest{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
