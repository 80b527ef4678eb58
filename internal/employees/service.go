package employees

import (
	"context"
	stdErrors "errors"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one employee in an admin's listing.
type Row struct {
	ID        string   `json:"id"`
	GivenName string   `json:"givenName"`
	Surname   string   `json:"surname"`
	FullName  string   `json:"fullName"`
	Roles     []string `json:"roles"`
}

// GrantRow is one of an employee's location grants.
type GrantRow struct {
	Role         string `json:"role" gorm:"column:role"`
	LocationID   string `json:"locationId" gorm:"column:location_id"`
	LocationName string `json:"locationName" gorm:"column:location_name"`
	Zip          string `json:"zip" gorm:"column:zip"`
}

// Detail is one employee with their grants.
type Detail struct {
	Row
	Grants []GrantRow `json:"grants"`
}

// SetLocationsInput adds and removes grant tuples for one employee role.
type SetLocationsInput struct {
	Role   string   `json:"role" validate:"required"`
	Add    []string `json:"add" validate:"dive,required"`
	Remove []string `json:"remove" validate:"dive,required"`
}

// Service lets role admins manage employee grants. Visibility follows
// the admin's roles: an employee shows up only when their role lists
// overlap.
type Service struct {
	db *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{db: client}
}

// visibleRoles expands the administered base roles with their admin
// variants, so admins see fellow admins too.
func visibleRoles(p *identity.Principal) []string {
	roles := make([]string, 0, 2*len(p.AdminOf))
	for _, role := range p.AdminOf {
		roles = append(roles, role, role+"_admin")
	}
	return roles
}

// FindMany lists employees holding any role the principal administers.
// The overlap predicate runs on the text[] column, so this requires
// postgres.
func (s *Service) FindMany(ctx context.Context, p *identity.Principal, find paginate.Find) (*paginate.Page[Row], error) {
	roles := visibleRoles(p)
	if len(roles) == 0 {
		page := paginate.NewPage([]Row{}, find)
		return &page, nil
	}

	q := s.db.DB().WithContext(ctx).
		Model(&models.User{}).
		Where("roles && ?", pq.Array(roles))
	q = records.ApplySearch(q, find.Search, "full_name", "surname")
	q = q.Order("surname asc, given_name asc")
	q = records.ApplyPage(q, find)

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, toRow(u))
	}
	page := paginate.NewPage(rows, find)
	return &page, nil
}

// GetOne reads one employee with their grants. Employees outside the
// principal's administered roles stay invisible.
func (s *Service) GetOne(ctx context.Context, p *identity.Principal, userID string) (*Detail, error) {
	var user models.User
	err := s.db.DB().WithContext(ctx).
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "employee not found")
		}
		return nil, err
	}
	if !rolesOverlap(user.Roles, visibleRoles(p)) {
		return nil, errors.New(errors.CodeNotFound, "employee not found")
	}

	var grants []GrantRow
	err = s.db.DB().WithContext(ctx).
		Table("user_location").
		Select("user_location.role, user_location.location_id, location.name AS location_name, location.zip").
		Joins("JOIN location ON location.id = user_location.location_id").
		Where("user_location.user_id = ?", userID).
		Order("user_location.role asc, location.name asc").
		Scan(&grants).Error
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []GrantRow{}
	}

	return &Detail{Row: toRow(user), Grants: grants}, nil
}

// SetLocations applies grant additions and removals for one employee
// role in a single transaction. Duplicate additions are ignored.
func (s *Service) SetLocations(ctx context.Context, p *identity.Principal, userID string, input SetLocationsInput) error {
	if !p.IsAdminOf(input.Role) {
		return errors.New(errors.CodeForbidden, "role not administered")
	}

	var exists int64
	err := s.db.DB().WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&exists).Error
	if err != nil {
		return err
	}
	if exists == 0 {
		return errors.New(errors.CodeNotFound, "employee not found")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var grants []models.UserLocation
		for _, locationID := range input.Add {
			grants = append(grants, models.UserLocation{
				UserID:     userID,
				LocationID: locationID,
				Role:       input.Role,
			})
		}
		if len(grants) > 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&grants).Error
			if err != nil {
				return err
			}
		}

		for _, locationID := range input.Remove {
			err := tx.Where("user_id = ? AND role = ? AND location_id = ?", userID, input.Role, locationID).
				Delete(&models.UserLocation{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func toRow(u models.User) Row {
	return Row{
		ID:        u.ID,
		GivenName: u.GivenName,
		Surname:   u.Surname,
		FullName:  u.FullName,
		Roles:     []string(u.Roles),
	}
}

func rolesOverlap(held, wanted []string) bool {
	for _, h := range held {
		for _, w := range wanted {
			if h == w {
				return true
			}
		}
	}
	return false
}
