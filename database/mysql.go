// database/mysql.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// mysqlSpatial stores feature classes as MySQL 8 tables with an
// SRID-restricted LINESTRING column. Spatial references come from the
// server's own catalog, so SpatialReference.Definition is not used.
type mysqlSpatial struct{}

// MySQL reads geographic WKB as lat-long unless told otherwise.
const mysqlAxisOrder = "'axis-order=long-lat'"

func (mysqlSpatial) Name() string { return "mysql" }

func (mysqlSpatial) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlSpatial) Init(ctx context.Context, db *sql.DB) error { return nil }

func (mysqlSpatial) ImportLogDDL() string {
	return `CREATE TABLE IF NOT EXISTS report_imports (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		feature_class VARCHAR(255) NOT NULL,
		report_file VARCHAR(255) NOT NULL,
		feature_count INT NOT NULL,
		imported_at VARCHAR(40) NOT NULL
	)`
}

func (mysqlSpatial) FeatureClassExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?", name,
	).Scan(&n)
	return n > 0, err
}

func (m mysqlSpatial) CreateFeatureClass(ctx context.Context, db *sql.DB, name string, srs SpatialReference) error {
	ddl := fmt.Sprintf(
		"CREATE TABLE %s (OBJECTID BIGINT AUTO_INCREMENT PRIMARY KEY, Shape LINESTRING NOT NULL SRID %d)",
		m.Quote(name), srs.ID,
	)
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (mysqlSpatial) ListFeatureClasses(ctx context.Context, db *sql.DB) ([]models.FeatureClass, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME, UPPER(GEOMETRY_TYPE_NAME), COALESCE(SRS_ID, 0)
		FROM information_schema.ST_GEOMETRY_COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME
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

func (m mysqlSpatial) InsertFeatureSQL(table string, srsID int) string {
	return fmt.Sprintf("INSERT INTO %s (Shape, %s) VALUES (ST_GeomFromWKB(?, %d, %s), ?, ?, ?, ?)",
		m.Quote(table), fieldList(m), srsID, mysqlAxisOrder)
}

func (mysqlSpatial) EncodeShape(ls orb.LineString, _ int) ([]byte, error) {
	return wkb.Marshal(ls)
}

func (m mysqlSpatial) SelectFeaturesSQL(table string) string {
	return fmt.Sprintf("SELECT OBJECTID, ST_AsWKB(Shape, %s), %s FROM %s ORDER BY OBJECTID",
		mysqlAxisOrder, fieldList(m), m.Quote(table))
}

func (mysqlSpatial) DecodeShape(b []byte) (orb.LineString, error) {
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("expected LineString geometry, got %s", g.GeoJSONType())
	}
	return ls, nil
}

// ExtendExtent is a no-op; MySQL computes extents from the data.
func (mysqlSpatial) ExtendExtent(context.Context, *sql.Tx, string, orb.Bound) error { return nil }
