package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const browsingCSV = `browsing_style,session_count,conversion_rate
Variety Seeker,1000,13.0
Deep Specialist,1000,2.5
Casual Browser,500,1.2
`

const dropoffCSV = `step,from_count,to_count,drop_rate
view_to_cart,1000,300,70.0
cart_to_checkout,300,120,60.0
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLocate(t *testing.T) {
	empty := t.TempDir()
	withData := t.TempDir()
	writeFile(t, withData, mart.ProbeFile, browsingCSV)
	second := t.TempDir()
	writeFile(t, second, mart.ProbeFile, browsingCSV)

	dir, err := Locate([]string{filepath.Join(empty, "missing"), empty, withData, second}, mart.ProbeFile)
	require.NoError(t, err)
	assert.Equal(t, withData, dir)

	_, err = Locate([]string{empty}, mart.ProbeFile)
	assert.ErrorIs(t, err, core.ErrDataDirNotFound)
}

func TestStore_LoadsOnceAndSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mart.Files[mart.BrowsingStyle], browsingCSV)
	writeFile(t, dir, mart.Files[mart.FunnelDropoff], dropoffCSV)

	store := NewStore(StoreConfig{Candidates: []string{dir}, Concurrency: 3}, nil)
	ctx := context.Background()

	assert.True(t, store.LoadedAt().IsZero())
	table, err := store.Table(ctx, mart.BrowsingStyle)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)
	assert.Equal(t, []string{"browsing_style", "session_count", "conversion_rate"}, table.Columns)
	assert.Equal(t, "Deep Specialist", table.Records[1]["browsing_style"])
	assert.False(t, store.LoadedAt().IsZero())

	keys, err := store.Available(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.MartKey{mart.BrowsingStyle, mart.FunnelDropoff}, keys)
	assert.Len(t, store.Skipped(), len(mart.Files)-2)

	_, err = store.Table(ctx, mart.FunnelDevice)
	assert.ErrorIs(t, err, core.ErrMartNotFound)
	assert.False(t, store.Has(ctx, mart.FunnelDevice))

	// Cached until reload
	writeFile(t, dir, mart.Files[mart.BrowsingStyle], "browsing_style,session_count,conversion_rate\nOnly,10,1.0\n")
	table, err = store.Table(ctx, mart.BrowsingStyle)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)

	require.NoError(t, store.Reload(ctx))
	table, err = store.Table(ctx, mart.BrowsingStyle)
	require.NoError(t, err)
	assert.Len(t, table.Records, 1)

	source, err := store.Source(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, source)
}

func TestStore_NoDataDirectory(t *testing.T) {
	store := NewStore(StoreConfig{Candidates: []string{t.TempDir()}}, nil)

	_, err := store.Table(context.Background(), mart.BrowsingStyle)
	assert.ErrorIs(t, err, core.ErrDataDirNotFound)

	_, err = store.Available(context.Background())
	assert.ErrorIs(t, err, core.ErrDataDirNotFound)
}

func TestStore_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marts.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("funnel_device")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"device_category", "sessions", "overall_cvr"},
		{"desktop", "2000", "2.1"},
		{"mobile", 1500, "1.4"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("funnel_device", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store := NewStore(StoreConfig{Workbook: path, Concurrency: 2}, nil)
	table, err := store.Table(context.Background(), mart.FunnelDevice)
	require.NoError(t, err)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "1500", table.Records[1]["sessions"])
	assert.Equal(t, path, table.Source)

	_, err = store.Table(context.Background(), mart.BrowsingStyle)
	assert.ErrorIs(t, err, core.ErrMartNotFound)
}

func TestStore_MissingWorkbook(t *testing.T) {
	store := NewStore(StoreConfig{Workbook: filepath.Join(t.TempDir(), "nope.xlsx")}, nil)
	err := store.Load(context.Background())
	assert.ErrorIs(t, err, core.ErrDataDirNotFound)
}

func TestStaticStore(t *testing.T) {
	table := &mart.Table{Name: mart.FunnelDay, Columns: []string{"day_name"}}
	store := NewStaticStore("memory", table)

	got, err := store.Table(context.Background(), mart.FunnelDay)
	require.NoError(t, err)
	assert.Same(t, table, got)
}
