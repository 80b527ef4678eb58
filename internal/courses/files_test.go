package courses

import (
	"context"
	"testing"

	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddReadRemoveFiles(t *testing.T) {
	svc, conn, store := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	transporter := seedEnum(t, conn, enums.KeyTransporter, "ČD Cargo")

	created, err := svc.Create(ctx, dispatcher("L1"), baseInput("L1", transporter), nil)
	require.NoError(t, err)

	up := stageUpload(t, store, "plomba.pdf", "obsah plomby")
	detail, err := svc.AddFiles(ctx, dispatcher("L1"), created.ID, map[string][]*files.Upload{
		models.CourseGroupDeparture: {up},
	})
	require.NoError(t, err)
	require.Len(t, detail.Files, 1)
	assert.Equal(t, "plomba.pdf", detail.Files[0].DisplayName)

	data, contentType, err := svc.ReadFile(ctx, created.ID, detail.Files[0].Filename)
	require.NoError(t, err)
	assert.Equal(t, "obsah plomby", string(data))
	assert.NotEmpty(t, contentType)

	err = svc.RemoveFiles(ctx, dispatcher("L1"), created.ID, []string{detail.Files[0].Filename})
	require.NoError(t, err)

	after, err := svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Files)

	_, _, err = svc.ReadFile(ctx, created.ID, detail.Files[0].Filename)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestAddFilesOutOfScope(t *testing.T) {
	svc, conn, store := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	transporter := seedEnum(t, conn, enums.KeyTransporter, "ČD Cargo")

	created, err := svc.Create(ctx, dispatcher("L1"), baseInput("L1", transporter), nil)
	require.NoError(t, err)

	up := stageUpload(t, store, "plomba.pdf", "obsah")
	_, err = svc.AddFiles(ctx, dispatcher("L2"), created.ID, map[string][]*files.Upload{
		models.CourseGroupDeparture: {up},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestRemoveFilesUnknownName(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	transporter := seedEnum(t, conn, enums.KeyTransporter, "ČD Cargo")

	created, err := svc.Create(ctx, dispatcher("L1"), baseInput("L1", transporter), nil)
	require.NoError(t, err)

	err = svc.RemoveFiles(ctx, dispatcher("L1"), created.ID, []string{"neexistuje"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}
