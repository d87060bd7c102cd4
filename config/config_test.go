package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Gas_Lines", cfg.FeatureClass.Name)
	assert.Equal(t, ".txt", cfg.Reports.Extension)
	assert.Equal(t, DriverSQLite, cfg.Workspace.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Schedule.WatchDebounce)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	prj := filepath.Join(dir, "Gas_Lines.prj")
	require.NoError(t, os.WriteFile(prj, []byte(`GEOGCS["GCS_WGS_1984"]`+"\n"), 0o644))

	yml := `
workspace:
  driver: mysql
  mysql:
    host: db.internal
    dbname: gis
feature_class:
  name: Gas_Lines_Test
  srs_id: 2263
  prj_file: ` + prj + `
reports:
  directory: /srv/reports
  extension: .txt
schedule:
  cron: "0 6 * * *"
  watch_debounce: 2s
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("GASLINES_REPORT_DIR", "/override/reports")
	t.Setenv("GASLINES_SRS_ID", "3857")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Workspace.Driver)
	assert.Equal(t, "db.internal", cfg.Workspace.MySQL.Host)
	assert.Equal(t, "3306", cfg.Workspace.MySQL.Port, "unset keys keep their defaults")
	assert.Equal(t, "Gas_Lines_Test", cfg.FeatureClass.Name)
	assert.Equal(t, 3857, cfg.FeatureClass.SRSID)
	assert.Equal(t, `GEOGCS["GCS_WGS_1984"]`, cfg.FeatureClass.SpatialReferenceWKT)
	assert.Equal(t, "/override/reports", cfg.Reports.Directory)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
	assert.Equal(t, 2*time.Second, cfg.Schedule.WatchDebounce)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"driver":    "workspace:\n  driver: oracle\n",
		"extension": "reports:\n  extension: txt\n",
		"debounce":  "schedule:\n  watch_debounce: soon\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
