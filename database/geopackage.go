// database/geopackage.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
)

// geoPackage stores feature classes in an SQLite file following the
// GeoPackage 1.3 layout, so the workspace opens directly in desktop GIS.
type geoPackage struct{}

const (
	gpkgApplicationID = 0x47504B47 // "GPKG"
	gpkgUserVersion   = 10300
	gpkgTimeLayout    = "2006-01-02T15:04:05.000Z"
)

func (geoPackage) Name() string { return "geopackage" }

func (geoPackage) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (geoPackage) Init(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE,
			min_y DOUBLE,
			max_x DOUBLE,
			max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
			CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
			CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys VALUES
			('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', 'undefined cartesian coordinate reference system'),
			('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', 'undefined geographic coordinate reference system')`,
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (geoPackage) ImportLogDDL() string {
	return `CREATE TABLE IF NOT EXISTS report_imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feature_class TEXT NOT NULL,
		report_file TEXT NOT NULL,
		feature_count INTEGER NOT NULL,
		imported_at TEXT NOT NULL
	)`
}

func (geoPackage) FeatureClassExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM gpkg_contents WHERE table_name = ? AND data_type = 'features'", name,
	).Scan(&n)
	return n > 0, err
}

func (g geoPackage) CreateFeatureClass(ctx context.Context, db *sql.DB, name string, srs SpatialReference) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	definition := srs.Definition
	if definition == "" {
		definition = "undefined"
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition) VALUES (?, ?, 'EPSG', ?, ?)",
		srs.Name, srs.ID, srs.ID, definition,
	); err != nil {
		return fmt.Errorf("failed to register spatial reference %d: %w", srs.ID, err)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (OBJECTID INTEGER PRIMARY KEY AUTOINCREMENT, Shape BLOB)", g.Quote(name))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES (?, 'features', ?, ?)",
		name, name, srs.ID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m) VALUES (?, 'Shape', 'LINESTRING', ?, 0, 0)",
		name, srs.ID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (geoPackage) ListFeatureClasses(ctx context.Context, db *sql.DB) ([]models.FeatureClass, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.table_name, g.geometry_type_name, g.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []models.FeatureClass
	for rows.Next() {
		var fc models.FeatureClass
		if err := rows.Scan(&fc.Name, &fc.GeometryType, &fc.SRSID); err != nil {
			return nil, err
		}
		classes = append(classes, fc)
	}
	return classes, rows.Err()
}

func (g geoPackage) InsertFeatureSQL(table string, _ int) string {
	return fmt.Sprintf("INSERT INTO %s (Shape, %s) VALUES (?, ?, ?, ?, ?)", g.Quote(table), fieldList(g))
}

func (geoPackage) EncodeShape(ls orb.LineString, srsID int) ([]byte, error) {
	return encodeGeoPackageGeometry(ls, srsID)
}

func (g geoPackage) SelectFeaturesSQL(table string) string {
	return fmt.Sprintf("SELECT OBJECTID, Shape, %s FROM %s ORDER BY OBJECTID", fieldList(g), g.Quote(table))
}

func (geoPackage) DecodeShape(b []byte) (orb.LineString, error) {
	ls, _, err := decodeGeoPackageGeometry(b)
	return ls, err
}

func (geoPackage) ExtendExtent(ctx context.Context, tx *sql.Tx, table string, bound orb.Bound) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE gpkg_contents SET
			min_x = min(coalesce(min_x, ?1), ?1),
			min_y = min(coalesce(min_y, ?2), ?2),
			max_x = max(coalesce(max_x, ?3), ?3),
			max_y = max(coalesce(max_y, ?4), ?4),
			last_change = ?5
		WHERE table_name = ?6`,
		bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(),
		time.Now().UTC().Format(gpkgTimeLayout), table,
	)
	return err
}
