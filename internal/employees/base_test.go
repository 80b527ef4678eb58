package employees

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:employees_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.UserLocation{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

// openPostgresDB is for the array-overlap listing, which only runs on a
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

func seedEmployee(t *testing.T, conn *gorm.DB, id, fullName string, roles ...string) {
	t.Helper()

	user := models.User{
		ID:       id,
		FullName: fullName,
		Roles:    pq.StringArray(roles),
	}
	if len(roles) == 0 {
		user.Roles = pq.StringArray{}
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
}
