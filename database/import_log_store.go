// database/import_log_store.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gewnthar/gaslines/models"
	"go.uber.org/zap"
)

// GetReportImports returns the import log of a feature class, oldest first.
func GetReportImports(ctx context.Context, featureClass string) ([]models.ReportImport, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, report_file, feature_count, imported_at
		FROM report_imports
		WHERE feature_class = ?
		ORDER BY id
	`, featureClass)
	if err != nil {
		return nil, fmt.Errorf("failed to query report_imports: %w", err)
	}
	defer rows.Close()

	var imports []models.ReportImport
	for rows.Next() {
		var (
			ri         models.ReportImport
			importedAt string
		)
		if err := rows.Scan(&ri.ID, &ri.ReportFile, &ri.FeatureCount, &importedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report_imports row: %w", err)
		}
		if ri.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt); err != nil {
			logger().Warn("Unparseable import timestamp",
				zap.Int64("id", ri.ID), zap.String("imported_at", importedAt), zap.Error(err))
		}
		imports = append(imports, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report_imports rows: %w", err)
	}
	return imports, nil
}
