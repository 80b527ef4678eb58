package remainders

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:remainders_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Remainder{},
		&models.RemainderCrate{},
		&models.Crate{},
		&models.TechnologicalGroup{},
		&models.TechnologicalGroupCrate{},
		&models.Location{},
		&models.User{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn := newTestDB(t)
	return NewService(db.FromConn(conn)), conn
}

func seedUser(t *testing.T, conn *gorm.DB, id, fullName string) {
	t.Helper()

	user := models.User{ID: id, FullName: fullName, Roles: pq.StringArray{"dispecink"}}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedLocation(t *testing.T, conn *gorm.DB, id, name string) {
	t.Helper()

	loc := models.Location{
		ID:             id,
		Zip:            "10000",
		Name:           name,
		Region:         "Praha",
		RegionOrg:      "Praha",
		PostOfficeType: "SPU",
	}
	if err := conn.Create(&loc).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
}

func seedTechGroup(t *testing.T, conn *gorm.DB, value, unit, group string, crates ...string) {
	t.Helper()

	if err := conn.Create(&models.TechnologicalGroup{Value: value, Unit: unit, Group: group}).Error; err != nil {
		t.Fatalf("seed tech group: %v", err)
	}
	for _, crate := range crates {
		c := models.Crate{Value: crate}
		if err := conn.Where("value = ?", crate).FirstOrCreate(&c).Error; err != nil {
			t.Fatalf("seed crate: %v", err)
		}
		link := models.TechnologicalGroupCrate{TechnologicalGroup: value, Crate: crate}
		if err := conn.Create(&link).Error; err != nil {
			t.Fatalf("seed tech group crate: %v", err)
		}
	}
}

func dispatcher(locations ...string) *identity.Principal {
	return identity.New("u1", "Jan", "Novák", "", []string{identity.RoleDispecink},
		map[string][]string{identity.RoleDispecink: locations})
}
