package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gewnthar/gaslines/config"
	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSRS = SpatialReference{ID: 4326, Name: "WGS 84", Definition: `GEOGCS["WGS 84"]`}

func setupTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace", "test.gpkg")
	require.NoError(t, InitDB(context.Background(), config.WorkspaceConfig{Driver: config.DriverSQLite, Path: path}))
	t.Cleanup(CloseDB)
	return path
}

func line(id, date string, pts ...orb.Point) models.GasLine {
	return models.GasLine{GroupID: id, Shape: orb.LineString(pts), Name: "Line_" + id, Date: date, PSI: "60", Material: "Steel"}
}

func TestNotInitialized(t *testing.T) {
	CloseDB()
	ctx := context.Background()

	_, err := FeatureClassExists(ctx, "Gas_Lines")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = DistinctDates(ctx, "Gas_Lines")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, SaveReportFeatures(ctx, "Gas_Lines", 4326, "x.txt", nil), ErrNotInitialized)
	assert.ErrorIs(t, Ping(ctx), ErrNotInitialized)
}

func TestEnsureFeatureClass(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	exists, err := FeatureClassExists(ctx, "Gas_Lines")
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := EnsureFeatureClass(ctx, "Gas_Lines", testSRS)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureFeatureClass(ctx, "Gas_Lines", testSRS)
	require.NoError(t, err)
	assert.False(t, created, "second ensure leaves the feature class alone")

	classes, err := ListFeatureClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.FeatureClass{{Name: "Gas_Lines", GeometryType: "LINESTRING", SRSID: 4326}}, classes)

	var definition string
	require.NoError(t, DB.QueryRow("SELECT definition FROM gpkg_spatial_ref_sys WHERE srs_id = 4326").Scan(&definition))
	assert.Equal(t, testSRS.Definition, definition)

	var appID int
	require.NoError(t, DB.QueryRow("PRAGMA application_id").Scan(&appID))
	assert.Equal(t, gpkgApplicationID, appID)
}

func TestSaveAndReadGasLines(t *testing.T) {
	path := setupTestDB(t)
	ctx := context.Background()

	_, err := EnsureFeatureClass(ctx, "Gas_Lines", testSRS)
	require.NoError(t, err)

	first := []models.GasLine{
		line("1", "10-14-21", orb.Point{-71.1, 42.3}, orb.Point{-71.0, 42.4}),
		line("2", "10-14-21", orb.Point{-70.9, 42.2}),
	}
	second := []models.GasLine{
		line("1", "10-15-21", orb.Point{-72.0, 41.9}, orb.Point{-71.5, 42.0}),
	}
	require.NoError(t, SaveReportFeatures(ctx, "Gas_Lines", 4326, "10-14-21.txt", first))
	require.NoError(t, SaveReportFeatures(ctx, "Gas_Lines", 4326, "10-15-21.txt", second))

	n, err := CountFeatures(ctx, "Gas_Lines")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dates, err := DistinctDates(ctx, "Gas_Lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"10-14-21", "10-15-21"}, dates)

	lines, err := GetGasLines(ctx, "Gas_Lines")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1), lines[0].ObjectID)
	assert.Equal(t, first[0].Shape, lines[0].Shape)
	assert.Equal(t, "Line_1", lines[0].Name)
	assert.Equal(t, "10-15-21", lines[2].Date)
	assert.Equal(t, second[0].Shape, lines[2].Shape)

	var minX, minY, maxX, maxY float64
	require.NoError(t, DB.QueryRow(
		"SELECT min_x, min_y, max_x, max_y FROM gpkg_contents WHERE table_name = 'Gas_Lines'",
	).Scan(&minX, &minY, &maxX, &maxY))
	assert.Equal(t, []float64{-72.0, 41.9, -70.9, 42.4}, []float64{minX, minY, maxX, maxY})

	imports, err := GetReportImports(ctx, "Gas_Lines")
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "10-14-21.txt", imports[0].ReportFile)
	assert.Equal(t, 2, imports[0].FeatureCount)
	assert.False(t, imports[1].ImportedAt.IsZero())

	// data survives reopening the workspace
	CloseDB()
	require.NoError(t, InitDB(ctx, config.WorkspaceConfig{Driver: config.DriverSQLite, Path: path}))
	n, err = CountFeatures(ctx, "Gas_Lines")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSaveReportFeatures_RollsBack(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	err := SaveReportFeatures(ctx, "Missing_Class", 4326, "10-14-21.txt",
		[]models.GasLine{line("1", "10-14-21", orb.Point{0, 0})})
	require.Error(t, err)

	imports, err := GetReportImports(ctx, "Missing_Class")
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestInitDB_UnsupportedDriver(t *testing.T) {
	err := InitDB(context.Background(), config.WorkspaceConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMySQLStatements(t *testing.T) {
	m := mysqlSpatial{}
	assert.Equal(t,
		"INSERT INTO `Gas_Lines` (Shape, `Name`, `Date`, `PSI`, `Material`) VALUES (ST_GeomFromWKB(?, 4326, 'axis-order=long-lat'), ?, ?, ?, ?)",
		m.InsertFeatureSQL("Gas_Lines", 4326))
	assert.Equal(t, "`odd``name`", m.Quote("odd`name"))

	ls := orb.LineString{{1, 2}, {3, 4}}
	b, err := m.EncodeShape(ls, 4326)
	require.NoError(t, err)
	got, err := m.DecodeShape(b)
	require.NoError(t, err)
	assert.Equal(t, ls, got)
}
