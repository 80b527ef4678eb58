package locations

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:locations_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Location{},
		&models.UserLocation{},
		&models.LocationRequest{},
		&models.User{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

func seedLocation(t *testing.T, conn *gorm.DB, id, name, officeType string) {
	t.Helper()

	loc := models.Location{
		ID:             id,
		Zip:            "10000",
		Name:           name,
		Region:         "Praha",
		RegionOrg:      "Praha",
		PostOfficeType: officeType,
	}
	if err := conn.Create(&loc).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
}
