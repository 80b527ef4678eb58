package records

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:records_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Dispatch{}, &models.Remainder{}, &models.RemainderCrate{}, &models.Course{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

// openPostgresDB is for the unaccent search path, which only runs on a
// real postgres.
func openPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("DISPECINK_DB_DSN")
	if dsn == "" {
		t.Skip("DISPECINK_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func seedDispatch(t *testing.T, conn *gorm.DB, locationID string) *models.Dispatch {
	t.Helper()

	row := &models.Dispatch{
		CreatedBy:  "u1",
		LocationID: locationID,
		TypeEnumID: 1,
		KeyEnumID:  2,
	}
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("seed dispatch: %v", err)
	}
	return row
}
