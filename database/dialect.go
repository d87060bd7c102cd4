// database/dialect.go
package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
)

// SpatialReference is the coordinate system a feature class is created in.
type SpatialReference struct {
	ID         int
	Name       string
	Definition string // WKT; empty when unknown
}

// Dialect hides the differences between the supported workspaces.
type Dialect interface {
	Name() string
	Init(ctx context.Context, db *sql.DB) error
	ImportLogDDL() string
	Quote(ident string) string

	FeatureClassExists(ctx context.Context, db *sql.DB, name string) (bool, error)
	CreateFeatureClass(ctx context.Context, db *sql.DB, name string, srs SpatialReference) error
	ListFeatureClasses(ctx context.Context, db *sql.DB) ([]models.FeatureClass, error)

	// InsertFeatureSQL returns an insert statement taking the encoded
	// shape followed by the attribute fields.
	InsertFeatureSQL(table string, srsID int) string
	EncodeShape(ls orb.LineString, srsID int) ([]byte, error)
	// SelectFeaturesSQL returns a query yielding OBJECTID, the encoded
	// shape and the attribute fields.
	SelectFeaturesSQL(table string) string
	DecodeShape(b []byte) (orb.LineString, error)

	// ExtendExtent records that features covering bound were written.
	ExtendExtent(ctx context.Context, tx *sql.Tx, table string, bound orb.Bound) error
}

// fieldList returns the quoted attribute field names in insert order.
func fieldList(d Dialect) string {
	quoted := make([]string, len(models.GasLineFields))
	for i, f := range models.GasLineFields {
		quoted[i] = d.Quote(f)
	}
	return strings.Join(quoted, ", ")
}
