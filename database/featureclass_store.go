// database/featureclass_store.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// FeatureClassExists reports whether a feature class called name exists.
func FeatureClassExists(ctx context.Context, name string) (bool, error) {
	if DB == nil {
		return false, ErrNotInitialized
	}
	exists, err := workspace.FeatureClassExists(ctx, DB, name)
	if err != nil {
		return false, fmt.Errorf("failed to check for feature class %s: %w", name, err)
	}
	return exists, nil
}

// CreateFeatureClass creates an empty polyline feature class and then adds
// the Name, Date, PSI and Material text fields to it.
func CreateFeatureClass(ctx context.Context, name string, srs SpatialReference) error {
	if DB == nil {
		return ErrNotInitialized
	}

	if err := workspace.CreateFeatureClass(ctx, DB, name, srs); err != nil {
		return fmt.Errorf("failed to create feature class %s: %w", name, err)
	}
	for _, field := range models.GasLineFields {
		if err := AddField(ctx, name, field); err != nil {
			return err
		}
	}

	logger().Info("Created feature class",
		zap.String("feature_class", name), zap.Int("srs_id", srs.ID), zap.Strings("fields", models.GasLineFields))
	return nil
}

// AddField adds a TEXT field to an existing feature class.
func AddField(ctx context.Context, table, field string) error {
	if DB == nil {
		return ErrNotInitialized
	}
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", workspace.Quote(table), workspace.Quote(field))
	if _, err := DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to add field %s to %s: %w", field, table, err)
	}
	return nil
}

// EnsureFeatureClass creates the feature class unless it already exists.
// created reports whether it had to be created.
func EnsureFeatureClass(ctx context.Context, name string, srs SpatialReference) (created bool, err error) {
	exists, err := FeatureClassExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		logger().Debug("Feature class already exists", zap.String("feature_class", name))
		return false, nil
	}
	if err := CreateFeatureClass(ctx, name, srs); err != nil {
		return false, err
	}
	return true, nil
}

// ListFeatureClasses returns the feature classes registered in the workspace.
func ListFeatureClasses(ctx context.Context) ([]models.FeatureClass, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	classes, err := workspace.ListFeatureClasses(ctx, DB)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature classes: %w", err)
	}
	return classes, nil
}

// DistinctDates returns the distinct non-null Date values stored in the
// feature class, sorted.
func DistinctDates(ctx context.Context, table string) ([]string, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	q := fmt.Sprintf("SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY %[1]s",
		workspace.Quote(models.FieldDate), workspace.Quote(table))
	rows, err := DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query dates in %s: %w", table, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date in %s: %w", table, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dates in %s: %w", table, err)
	}
	return dates, nil
}

// CountFeatures returns the number of rows in the feature class.
func CountFeatures(ctx context.Context, table string) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	var n int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", workspace.Quote(table))
	if err := DB.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count features in %s: %w", table, err)
	}
	return n, nil
}

// SaveReportFeatures inserts the gas lines read from one report and records
// the report in the import log, all in a single transaction.
func SaveReportFeatures(ctx context.Context, table string, srsID int, reportFile string, lines []models.GasLine) error {
	if DB == nil {
		return ErrNotInitialized
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", reportFile, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, workspace.InsertFeatureSQL(table, srsID))
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert statement: %w", err)
	}
	defer stmt.Close()

	var (
		extent     orb.Bound
		haveExtent bool
	)
	for _, line := range lines {
		shape, err := workspace.EncodeShape(line.Shape, srsID)
		if err != nil {
			return fmt.Errorf("failed to encode shape of line %s in %s: %w", line.GroupID, reportFile, err)
		}
		if _, err := stmt.ExecContext(ctx, shape, line.Name, line.Date, line.PSI, line.Material); err != nil {
			logger().Error("Failed to insert gas line",
				zap.String("report", reportFile), zap.String("group_id", line.GroupID), zap.Error(err))
			return fmt.Errorf("failed to insert line %s from %s: %w", line.GroupID, reportFile, err)
		}

		if len(line.Shape) == 0 {
			continue
		}
		if !haveExtent {
			extent, haveExtent = line.Shape.Bound(), true
		} else {
			extent = extent.Union(line.Shape.Bound())
		}
	}

	if haveExtent {
		if err := workspace.ExtendExtent(ctx, tx, table, extent); err != nil {
			return fmt.Errorf("failed to update extent of %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO report_imports (feature_class, report_file, feature_count, imported_at) VALUES (?, ?, ?, ?)",
		table, reportFile, len(lines), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to log import of %s: %w", reportFile, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for %s: %w", reportFile, err)
	}

	logger().Info("Saved gas lines",
		zap.String("feature_class", table), zap.String("report", reportFile), zap.Int("features", len(lines)))
	return nil
}

// GetGasLines reads every feature of the feature class in OBJECTID order.
func GetGasLines(ctx context.Context, table string) ([]models.GasLine, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	rows, err := DB.QueryContext(ctx, workspace.SelectFeaturesSQL(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query features of %s: %w", table, err)
	}
	defer rows.Close()

	var lines []models.GasLine
	for rows.Next() {
		var (
			line  models.GasLine
			shape []byte
		)
		if err := rows.Scan(&line.ObjectID, &shape, &line.Name, &line.Date, &line.PSI, &line.Material); err != nil {
			return nil, fmt.Errorf("failed to scan feature of %s: %w", table, err)
		}
		if line.Shape, err = workspace.DecodeShape(shape); err != nil {
			return nil, fmt.Errorf("failed to decode shape of feature %d in %s: %w", line.ObjectID, table, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features of %s: %w", table, err)
	}
	return lines, nil
}
