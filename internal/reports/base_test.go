package reports

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"sync/atomic"
	"testing"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:reports_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.RegionalReport{},
		&models.RegionalReportFile{},
		&models.Location{},
		&models.User{},
		&models.EnumValue{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *files.Store) {
	t.Helper()

	conn := newTestDB(t)
	store, err := files.NewStore(config.Files{StagingDir: t.TempDir(), PersistDir: t.TempDir()})
	require.NoError(t, err)
	return NewService(db.FromConn(conn), store), conn, store
}

func seedUser(t *testing.T, conn *gorm.DB, id, fullName string) {
	t.Helper()

	user := models.User{ID: id, FullName: fullName, Roles: pq.StringArray{"reglogistika"}}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedLocation(t *testing.T, conn *gorm.DB, id, name, zip string) {
	t.Helper()

	loc := models.Location{
		ID:             id,
		Zip:            zip,
		Name:           name,
		Region:         "Praha",
		RegionOrg:      "Praha",
		PostOfficeType: "SPU",
	}
	if err := conn.Create(&loc).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
}

func logistician(locations ...string) *identity.Principal {
	return identity.New("u1", "Jana", "Dvořáková", "", []string{identity.RoleRegLogistika},
		map[string][]string{identity.RoleRegLogistika: locations})
}

func regAdmin() *identity.Principal {
	return identity.New("a1", "Petr", "Admin", "", []string{"reglogistika_admin"}, nil)
}

func stageUpload(t *testing.T, store *files.Store, name, content string) *files.Upload {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	up, err := store.Stage(form.File["file"][0])
	require.NoError(t, err)
	return up
}
