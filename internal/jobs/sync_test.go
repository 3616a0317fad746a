package jobs_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/xuri/excelize/v2"

	"yard-ticketing/internal/config"
	"yard-ticketing/internal/jobs"
	"yard-ticketing/internal/models"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.JobCacheEntry)(nil)))
	return bunDB
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadCache(t *testing.T, db *bun.DB) map[string]models.JobCacheEntry {
	t.Helper()
	var entries []models.JobCacheEntry
	require.NoError(t, db.NewSelect().Model(&entries).Scan(context.Background()))
	byCode := make(map[string]models.JobCacheEntry, len(entries))
	for _, entry := range entries {
		byCode[entry.JobCode] = entry
	}
	return byCode
}

func TestSyncFromAliasedCSV(t *testing.T) {
	db := setupTestDB(t)
	path := writeTempCSV(t, "Job #,Job Name,Customer Name,Job Status\n"+
		"J100,Main St Repave,Acme Hauling,A\n"+
		"J200,Bypass Extension,County DOT,C\n"+
		"J300,Yard Internal,,a\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, merged)

	cache := loadCache(t, db)
	require.Len(t, cache, 3)
	assert.Equal(t, "Main St Repave", cache["J100"].JobName)
	assert.Equal(t, "Acme Hauling", cache["J100"].Customer)
	assert.True(t, cache["J100"].Active)
	assert.False(t, cache["J200"].Active, `status "C" maps to inactive`)
	assert.True(t, cache["J300"].Active, `status compare is case-insensitive`)
	assert.False(t, cache["J100"].RefreshedAt.IsZero())
}

func TestSyncWithPlainHeadersAndFlag(t *testing.T) {
	db := setupTestDB(t)
	path := writeTempCSV(t, "job_code,job_name,customer,active,source_updated_at\n"+
		"J100,Main St Repave,Acme Hauling,1,2026-08-01\n"+
		"J200,Bypass Extension,County DOT,0,2026-08-02\n"+
		"J300,Yard Internal,,,\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, merged)

	cache := loadCache(t, db)
	assert.True(t, cache["J100"].Active)
	assert.False(t, cache["J200"].Active)
	assert.True(t, cache["J300"].Active, "empty flag defaults to active")
	assert.Equal(t, "2026-08-01", cache["J100"].SourceUpdatedAt)
}

func TestSyncUpsertsWithoutDuplicatesOrDeletes(t *testing.T) {
	db := setupTestDB(t)
	first := writeTempCSV(t, "job_code,job_name,customer\n"+
		"J100,Main St Repave,Acme Hauling\n"+
		"J200,Bypass Extension,County DOT\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: first})
	_, err := sync.Sync(context.Background())
	require.NoError(t, err)

	// Second pull renames one job and drops the other entirely.
	second := writeTempCSV(t, "job_code,job_name,customer\n"+
		"J100,Main St Mill And Fill,Acme Hauling\n")
	sync.Cfg.SourcePath = second
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	cache := loadCache(t, db)
	require.Len(t, cache, 2, "rows absent from a pull are kept, never deleted")
	assert.Equal(t, "Main St Mill And Fill", cache["J100"].JobName)
	assert.Equal(t, "Bypass Extension", cache["J200"].JobName)
}

func TestSyncSkipsRowsWithoutCode(t *testing.T) {
	db := setupTestDB(t)
	path := writeTempCSV(t, "job_code,job_name\n"+
		",Orphan Row\n"+
		"J100,Main St Repave\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, merged)
	assert.Len(t, loadCache(t, db), 1)
}

func TestSyncMissingRequiredColumns(t *testing.T) {
	db := setupTestDB(t)
	path := writeTempCSV(t, "Customer Name,Job Status\nAcme Hauling,A\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	_, err := sync.Sync(context.Background())

	var cerr *jobs.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, "job_code or Job #")
	assert.Contains(t, cerr.Message, "job_name or Job Name")
	assert.Empty(t, loadCache(t, db), "a rejected source must not touch the cache")
}

func TestSyncStripsByteOrderMark(t *testing.T) {
	db := setupTestDB(t)
	path := writeTempCSV(t, "\ufeffjob_code,job_name\nJ100,Main St Repave\n")

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, merged)
}

func TestSyncNoSourceConfigured(t *testing.T) {
	db := setupTestDB(t)

	sync := jobs.NewSynchronizer(db, config.JobsConfig{
		DefaultPath: filepath.Join(t.TempDir(), "absent.csv"),
	})
	_, err := sync.Sync(context.Background())

	var cerr *jobs.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, "no jobs source found")
}

func TestSyncFromXLSX(t *testing.T) {
	db := setupTestDB(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Job #", "Job Name", "Customer Name", "Job Status"},
		{"J100", "Main St Repave", "Acme Hauling", "A"},
		{"J200", "Bypass Extension", "County DOT", "X"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sync := jobs.NewSynchronizer(db, config.JobsConfig{SourcePath: path})
	merged, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	cache := loadCache(t, db)
	assert.True(t, cache["J100"].Active)
	assert.False(t, cache["J200"].Active)
}
