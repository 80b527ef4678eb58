package dispatch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput(locationID string, typeID, keyID int64) UpsertInput {
	return UpsertInput{
		UserTime:   time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		LocationID: locationID,
		TypeEnumID: typeID,
		KeyEnumID:  keyID,
	}
}

func TestMetaSortsOptions(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	seedLocation(t, conn, "L2", "Depo Brno", "DEPO")
	seedEnum(t, conn, enums.KeyType, "Výpadek")
	seedEnum(t, conn, enums.KeyType, "Oprava")
	seedEnum(t, conn, enums.KeyKlic, "ranní")

	meta, err := svc.Meta(ctx)
	require.NoError(t, err)
	require.Len(t, meta.Locations, 1)
	require.Len(t, meta.Types, 2)
	assert.Equal(t, "Oprava", meta.Types[0].Name)
	require.Len(t, meta.Keys, 1)
}

func TestCreateAndGetOne(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedUser(t, conn, "u1", "Jan Novák")
	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	typeID := seedEnum(t, conn, enums.KeyType, "Výpadek")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	input := baseInput("L1", typeID, keyID)
	input.Description = strptr("výpadek třídičky")

	created, err := svc.Create(ctx, dispatcher("L1"), input)
	require.NoError(t, err)
	require.NotNil(t, created.CreatedByFullName)
	assert.Equal(t, "Jan Novák", *created.CreatedByFullName)
	require.NotNil(t, created.LocationName)
	assert.Equal(t, "SPU Praha", *created.LocationName)
	require.NotNil(t, created.TypeEnumName)
	assert.Equal(t, "Výpadek", *created.TypeEnumName)
	require.NotNil(t, created.KeyEnumName)
	assert.Equal(t, "ranní", *created.KeyEnumName)

	got, err := svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetOne(ctx, created.ID+1)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestCreateRequiresGrant(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	typeID := seedEnum(t, conn, enums.KeyType, "Výpadek")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	_, err := svc.Create(ctx, dispatcher("L9"), baseInput("L1", typeID, keyID))
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestFindManyFilters(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedUser(t, conn, "u1", "Jan Novák")
	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	seedLocation(t, conn, "L2", "SPU Brno", "SPU")
	typeA := seedEnum(t, conn, enums.KeyType, "Výpadek")
	typeB := seedEnum(t, conn, enums.KeyType, "Oprava")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	_, err := svc.Create(ctx, dispatcher("L1", "L2"), baseInput("L1", typeA, keyID))
	require.NoError(t, err)
	_, err = svc.Create(ctx, dispatcher("L1", "L2"), baseInput("L2", typeB, keyID))
	require.NoError(t, err)

	page, err := svc.FindMany(ctx, paginate.Find{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	// newest first
	assert.Equal(t, "L2", page.Items[0].LocationID)

	page, err = svc.FindMany(ctx, paginate.Find{
		Limit:  10,
		Filter: json.RawMessage(`{"locationId":["L1"]}`),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "L1", page.Items[0].LocationID)

	page, err = svc.FindMany(ctx, paginate.Find{
		Limit:  10,
		Filter: json.RawMessage(fmt.Sprintf(`{"typeEnumId":[%d]}`, typeB)),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, typeB, page.Items[0].TypeEnumID)

	_, err = svc.FindMany(ctx, paginate.Find{
		Limit:  10,
		Filter: json.RawMessage(`{"neznamy":1}`),
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestUpdateScope(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedUser(t, conn, "u1", "Jan Novák")
	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	seedLocation(t, conn, "L2", "SPU Brno", "SPU")
	typeID := seedEnum(t, conn, enums.KeyType, "Výpadek")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	created, err := svc.Create(ctx, dispatcher("L1"), baseInput("L1", typeID, keyID))
	require.NoError(t, err)

	input := baseInput("L1", typeID, keyID)
	input.Description = strptr("doplněno")
	updated, err := svc.Update(ctx, dispatcher("L1"), created.ID, input)
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "doplněno", *updated.Description)
	require.NotNil(t, updated.UpdatedByFullName)
	assert.Equal(t, "Jan Novák", *updated.UpdatedByFullName)

	_, err = svc.Update(ctx, dispatcher("L2"), created.ID, baseInput("L2", typeID, keyID))
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestDeleteScope(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	typeID := seedEnum(t, conn, enums.KeyType, "Výpadek")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	created, err := svc.Create(ctx, dispatcher("L1"), baseInput("L1", typeID, keyID))
	require.NoError(t, err)

	err = svc.Delete(ctx, dispatcher("L2"), created.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())

	require.NoError(t, svc.Delete(ctx, dispatcher("L1"), created.ID))
	_, err = svc.GetOne(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestExport(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	seedUser(t, conn, "u1", "Jan Novák")
	seedLocation(t, conn, "L1", "SPU Praha", "SPU")
	typeID := seedEnum(t, conn, enums.KeyType, "Výpadek")
	keyID := seedEnum(t, conn, enums.KeyKlic, "ranní")

	input := baseInput("L1", typeID, keyID)
	input.Description = strptr("výpadek třídičky")
	_, err := svc.Create(ctx, dispatcher("L1"), input)
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour).Format(time.RFC3339)
	to := time.Now().Add(time.Hour).Format(time.RFC3339)

	data, filename, err := svc.Export(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "dispecerska_sluzba_"))

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Vytvořeno", "Vytvořil", "DSPU", "Datum ku", "Typ", "Klíč", "Popis"}, rows[0])
	assert.Equal(t, "Jan Novák", rows[1][1])
	assert.Equal(t, "Výpadek", rows[1][4])
	assert.Equal(t, "výpadek třídičky", rows[1][6])

	_, _, err = svc.Export(ctx, "spatne", to)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func strptr(s string) *string { return &s }
