package catalog_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"yard-ticketing/internal/catalog"
	"yard-ticketing/internal/models"
)

func setupStore(t *testing.T) *catalog.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*models.JobCacheEntry)(nil),
		(*models.Truck)(nil),
		(*models.Material)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}
	return &catalog.Store{Bun: bunDB}
}

func TestAddTruckRejectsDuplicatesAndBlank(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddTruck(ctx, &models.Truck{TruckNumber: " T12 ", Description: "Tri-axle"}))

	var derr *catalog.DuplicateError
	err := store.AddTruck(ctx, &models.Truck{TruckNumber: "T12"})
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Message, "already exists")

	err = store.AddTruck(ctx, &models.Truck{TruckNumber: "   "})
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Message, "required")

	trucks, err := store.ListTrucks(ctx, false)
	require.NoError(t, err)
	require.Len(t, trucks, 1)
	assert.Equal(t, "T12", trucks[0].TruckNumber, "number is trimmed before insert")
	assert.True(t, trucks[0].Active, "new trucks start active")
}

func TestToggleTruck(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	truck := &models.Truck{TruckNumber: "T12"}
	require.NoError(t, store.AddTruck(ctx, truck))

	require.NoError(t, store.ToggleTruck(ctx, truck.ID))
	active, err := store.ListTrucks(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, store.ToggleTruck(ctx, truck.ID))
	active, err = store.ListTrucks(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	err = store.ToggleTruck(ctx, 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAddAndToggleMaterial(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	material := &models.Material{MaterialName: "Crushed Concrete"}
	require.NoError(t, store.AddMaterial(ctx, material))

	var derr *catalog.DuplicateError
	err := store.AddMaterial(ctx, &models.Material{MaterialName: "Crushed Concrete"})
	require.ErrorAs(t, err, &derr)

	require.NoError(t, store.ToggleMaterial(ctx, material.ID))
	active, err := store.ListMaterials(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := store.ListMaterials(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1, "toggled-off materials stay listed for admin")
}

func TestListActiveJobsOrdersByCode(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entries := []models.JobCacheEntry{
		{JobCode: "J300", JobName: "Yard Internal", Active: true},
		{JobCode: "J100", JobName: "Main St Repave", Active: true},
		{JobCode: "J200", JobName: "Bypass Extension", Active: false},
	}
	_, err := store.Bun.NewInsert().Model(&entries).Exec(ctx)
	require.NoError(t, err)

	jobs, err := store.ListActiveJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "J100", jobs[0].JobCode)
	assert.Equal(t, "J300", jobs[1].JobCode)
}
