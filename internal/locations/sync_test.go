package locations

import (
	"context"
	"testing"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/postinfo"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubDirectory struct {
	details []postinfo.PostDetail
	err     error
	calls   int
}

func (d *stubDirectory) GetDetail(ctx context.Context) ([]postinfo.PostDetail, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.details, nil
}

func newTestSynchronizer(t *testing.T, dir *stubDirectory) (*Synchronizer, *gorm.DB, *time.Time) {
	t.Helper()

	conn := newTestDB(t)
	sync := NewSynchronizer(db.FromConn(conn), dir, nil, nil, config.Sync{
		LocationTTL: time.Hour,
	})

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := &now
	sync.now = func() time.Time { return *clock }
	return sync, conn, clock
}

func TestSyncUpsertsDirectory(t *testing.T) {
	spu := "SPU Praha 022"
	dir := &stubDirectory{details: []postinfo.PostDetail{
		{
			PostID:             "L1",
			PostCode:           "22200",
			Name:               "SPU Praha 022",
			Region:             "Praha",
			Region1:            "Praha org",
			PostOfficeType:     "15",
			PostOfficeTypeName: "SPU",
		},
		{
			PostID:             "L2",
			PostCode:           "70030",
			Name:               "Depo Ostrava 70",
			Region:             "Moravskoslezský",
			Region1:            "Ostrava org",
			SpuName:            &spu,
			PostOfficeType:     "9",
			PostOfficeTypeName: "DEPO",
		},
	}}
	sync, conn, _ := newTestSynchronizer(t, dir)

	require.NoError(t, sync.Sync(context.Background()))

	var rows []models.Location
	require.NoError(t, conn.Order("id asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "SPU", rows[0].PostOfficeType)
	assert.Equal(t, "22200", rows[0].Zip)
	assert.Equal(t, "DEPO", rows[1].PostOfficeType)
	require.NotNil(t, rows[1].SpuName)
	assert.Equal(t, "SPU Praha 022", *rows[1].SpuName)
}

func TestSyncOverwritesExistingRows(t *testing.T) {
	dir := &stubDirectory{details: []postinfo.PostDetail{
		{
			PostID:             "L1",
			PostCode:           "22200",
			Name:               "SPU Praha 022 renamed",
			Region:             "Praha",
			Region1:            "Praha org",
			PostOfficeType:     "15",
			PostOfficeTypeName: "SPU",
		},
	}}
	sync, conn, _ := newTestSynchronizer(t, dir)
	seedLocation(t, conn, "L1", "SPU Praha 022", "SPU")

	require.NoError(t, sync.Force(context.Background()))

	var row models.Location
	require.NoError(t, conn.Where("id = ?", "L1").Take(&row).Error)
	assert.Equal(t, "SPU Praha 022 renamed", row.Name)
	assert.Equal(t, "22200", row.Zip)
}

func TestSyncHonorsTTL(t *testing.T) {
	dir := &stubDirectory{}
	sync, _, clock := newTestSynchronizer(t, dir)
	ctx := context.Background()

	require.NoError(t, sync.Sync(ctx))
	require.NoError(t, sync.Sync(ctx))
	assert.Equal(t, 1, dir.calls)

	*clock = clock.Add(2 * time.Hour)
	require.NoError(t, sync.Sync(ctx))
	assert.Equal(t, 2, dir.calls)

	// Force ignores the gate
	require.NoError(t, sync.Force(ctx))
	assert.Equal(t, 3, dir.calls)
}

func TestSyncFailureLeavesGateOpen(t *testing.T) {
	dir := &stubDirectory{err: errors.New(errors.CodeDependency, "bus down")}
	sync, _, _ := newTestSynchronizer(t, dir)
	ctx := context.Background()

	require.Error(t, sync.Sync(ctx))
	require.Error(t, sync.Sync(ctx))
	assert.Equal(t, 2, dir.calls)

	dir.err = nil
	require.NoError(t, sync.Sync(ctx))
	require.NoError(t, sync.Sync(ctx))
	assert.Equal(t, 3, dir.calls)
}
