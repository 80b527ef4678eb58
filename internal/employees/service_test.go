package employees

import (
	"context"
	"testing"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEmployeeService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn := newTestDB(t)
	return NewService(db.FromConn(conn)), conn
}

func dispecinkAdmin() *identity.Principal {
	return identity.New("admin1", "Eva", "Admin", "", []string{"dispecink_admin"}, nil)
}

func TestGetOneRequiresRoleOverlap(t *testing.T) {
	svc, conn := newEmployeeService(t)
	ctx := context.Background()
	seedEmployee(t, conn, "u1", "Jan Dvořák", "dispecink")
	seedEmployee(t, conn, "u2", "Petr Malý", "reglogistika")

	detail, err := svc.GetOne(ctx, dispecinkAdmin(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jan Dvořák", detail.FullName)
	assert.Empty(t, detail.Grants)

	_, err = svc.GetOne(ctx, dispecinkAdmin(), "u2")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())

	_, err = svc.GetOne(ctx, dispecinkAdmin(), "missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestGetOneListsGrants(t *testing.T) {
	svc, conn := newEmployeeService(t)
	ctx := context.Background()
	seedEmployee(t, conn, "u1", "Jan Dvořák", "dispecink_admin")

	loc := models.Location{ID: "L1", Zip: "10000", Name: "SPU Praha 022", Region: "Praha", RegionOrg: "Praha", PostOfficeType: "SPU"}
	require.NoError(t, conn.Create(&loc).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: "u1", LocationID: "L1", Role: "dispecink"}).Error)

	detail, err := svc.GetOne(ctx, dispecinkAdmin(), "u1")
	require.NoError(t, err)
	require.Len(t, detail.Grants, 1)
	assert.Equal(t, "SPU Praha 022", detail.Grants[0].LocationName)
	assert.Equal(t, "dispecink", detail.Grants[0].Role)
}

func TestSetLocations(t *testing.T) {
	svc, conn := newEmployeeService(t)
	ctx := context.Background()
	seedEmployee(t, conn, "u1", "Jan Dvořák", "dispecink")

	for _, id := range []string{"L1", "L2", "L3"} {
		loc := models.Location{ID: id, Zip: "10000", Name: "Loc " + id, Region: "Praha", RegionOrg: "Praha", PostOfficeType: "SPU"}
		require.NoError(t, conn.Create(&loc).Error)
	}
	require.NoError(t, conn.Create(&models.UserLocation{UserID: "u1", LocationID: "L3", Role: "dispecink"}).Error)

	err := svc.SetLocations(ctx, dispecinkAdmin(), "u1", SetLocationsInput{
		Role:   "dispecink",
		Add:    []string{"L1", "L2", "L3"},
		Remove: []string{"L2"},
	})
	require.NoError(t, err)

	var grants []models.UserLocation
	require.NoError(t, conn.Order("location_id asc").Find(&grants).Error)
	require.Len(t, grants, 2)
	assert.Equal(t, "L1", grants[0].LocationID)
	assert.Equal(t, "L3", grants[1].LocationID)
}

func TestSetLocationsGuards(t *testing.T) {
	svc, conn := newEmployeeService(t)
	ctx := context.Background()
	seedEmployee(t, conn, "u1", "Jan Dvořák", "dispecink")

	err := svc.SetLocations(ctx, dispecinkAdmin(), "u1", SetLocationsInput{Role: "reglogistika", Add: []string{"L1"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())

	err = svc.SetLocations(ctx, dispecinkAdmin(), "missing", SetLocationsInput{Role: "dispecink", Add: []string{"L1"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestFindManyOverlap(t *testing.T) {
	conn := openPostgresDB(t)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	t.Cleanup(func() {
		conn.Where("id LIKE ?", "emp-test-%").Delete(&models.User{})
	})

	seedEmployee(t, conn, "emp-test-1", "Jan Dvořák", "dispecink")
	seedEmployee(t, conn, "emp-test-2", "Petr Malý", "dispecink_admin")
	seedEmployee(t, conn, "emp-test-3", "Karel Černý", "reglogistika")

	svc := NewService(db.FromConn(conn))
	page, err := svc.FindMany(context.Background(), dispecinkAdmin(), paginate.Find{Limit: 10})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, row := range page.Items {
		ids[row.ID] = true
	}
	assert.True(t, ids["emp-test-1"])
	assert.True(t, ids["emp-test-2"])
	assert.False(t, ids["emp-test-3"])
}
