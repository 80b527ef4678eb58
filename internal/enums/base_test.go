package enums

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:enums_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EnumValue{}, &models.User{}); err != nil {
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

	user := models.User{ID: id, FullName: fullName, Roles: pq.StringArray{}}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}
