// services/import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gewnthar/gaslines/config"
	"github.com/gewnthar/gaslines/database"
	"github.com/gewnthar/gaslines/models"
	"github.com/gewnthar/gaslines/reports"
	"github.com/gewnthar/gaslines/utils"
	"go.uber.org/zap"
)

// ErrImportRunning is returned by TryRunImport while another run is active.
var ErrImportRunning = errors.New("an import is already running")

// importMu serializes imports triggered from the CLI, scheduler, watcher
// and admin API.
var importMu sync.Mutex

func logger() *zap.Logger { return zap.L().Named("service") }

// SpatialReference returns the spatial reference new feature classes are
// created with.
func SpatialReference() database.SpatialReference {
	fc := config.AppConfig.FeatureClass
	return database.SpatialReference{ID: fc.SRSID, Name: fc.SRSName, Definition: fc.SpatialReferenceWKT}
}

// RunImport waits for any running import to finish and then runs one.
func RunImport(ctx context.Context) (*models.ImportSummary, error) {
	importMu.Lock()
	defer importMu.Unlock()
	return runImport(ctx)
}

// TryRunImport runs an import unless one is already running.
func TryRunImport(ctx context.Context) (*models.ImportSummary, error) {
	if !importMu.TryLock() {
		return nil, ErrImportRunning
	}
	defer importMu.Unlock()
	return runImport(ctx)
}

func runImport(ctx context.Context) (*models.ImportSummary, error) {
	cfg := config.AppConfig
	fcName := cfg.FeatureClass.Name
	log := logger().With(zap.String("feature_class", fcName))

	if _, err := database.EnsureFeatureClass(ctx, fcName, SpatialReference()); err != nil {
		return nil, err
	}

	classes, err := database.ListFeatureClasses(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	log.Info("Feature classes in workspace", zap.Strings("feature_classes", names))

	if cfg.Reports.FeedURL != "" {
		if _, err := reports.SyncFeed(ctx, cfg.Reports.FeedURL, cfg.Reports.Directory, cfg.Reports.Extension); err != nil {
			// local reports can still be imported
			log.Warn("Report feed sync failed", zap.String("feed", cfg.Reports.FeedURL), zap.Error(err))
		}
	}

	completedSet, completed, err := CompletedReports(ctx)
	if err != nil {
		return nil, err
	}

	available, err := reports.ListReports(cfg.Reports.Directory, cfg.Reports.Extension)
	if err != nil {
		return nil, err
	}

	pending := reports.PendingReports(available, completedSet)
	for _, name := range available {
		if _, done := completedSet[name]; done {
			log.Debug("Report is already imported", zap.String("report", name))
		} else {
			log.Info("Report needs to be imported", zap.String("report", name))
		}
	}

	summary := &models.ImportSummary{
		Available: available,
		Completed: completed,
		Pending:   pending,
	}

	for _, name := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		n, err := ImportReport(ctx, filepath.Join(cfg.Reports.Directory, name))
		if err != nil {
			return summary, err
		}
		if n == 0 {
			summary.Skipped = append(summary.Skipped, name)
			continue
		}
		summary.Imported = append(summary.Imported, name)
		summary.Features += n
	}

	log.Info("Import finished",
		zap.Int("available", len(available)),
		zap.Int("pending", len(pending)),
		zap.Int("imported", len(summary.Imported)),
		zap.Int("features", summary.Features))
	return summary, nil
}

// CompletedReports returns the report file names already imported into the
// configured feature class, derived from its distinct Date values, both as
// a set and as a sorted list.
func CompletedReports(ctx context.Context) (map[string]struct{}, []string, error) {
	cfg := config.AppConfig
	dates, err := database.DistinctDates(ctx, cfg.FeatureClass.Name)
	if err != nil {
		return nil, nil, err
	}

	set := make(map[string]struct{}, len(dates))
	list := make([]string, 0, len(dates))
	for _, d := range dates {
		name := utils.ReportFileName(d, cfg.Reports.Extension)
		set[name] = struct{}{}
		list = append(list, name)
	}
	return set, list, nil
}

// ImportReport parses the report at path, groups its rows into gas lines
// and stores them. It returns the number of features written; a report
// without rows writes nothing.
func ImportReport(ctx context.Context, path string) (int, error) {
	cfg := config.AppConfig
	name := filepath.Base(path)
	log := logger().With(zap.String("report", name))

	records, err := reports.ParseReportFile(path)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		log.Warn("Report has no rows, skipping")
		return 0, nil
	}

	lines := reports.GroupLines(records)

	fileDate, _ := utils.ReportDate(name, cfg.Reports.Extension)
	for _, line := range lines {
		if line.Date != fileDate {
			log.Warn("Report rows carry a date that does not match the file name; the report will be selected again on the next run",
				zap.String("date", line.Date), zap.String("group_id", line.GroupID))
			break
		}
	}

	if err := database.SaveReportFeatures(ctx, cfg.FeatureClass.Name, cfg.FeatureClass.SRSID, name, lines); err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", name, err)
	}
	return len(lines), nil
}

// FeatureClassStatus summarizes the configured feature class.
func FeatureClassStatus(ctx context.Context) (*models.FeatureClassStatus, error) {
	cfg := config.AppConfig
	name := cfg.FeatureClass.Name

	status := &models.FeatureClassStatus{
		FeatureClass: models.FeatureClass{Name: name},
	}

	exists, err := database.FeatureClassExists(ctx, name)
	if err != nil {
		return nil, err
	}

	completedSet := map[string]struct{}{}
	if exists {
		classes, err := database.ListFeatureClasses(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range classes {
			if c.Name == name {
				status.FeatureClass = c
			}
		}
		if status.FeatureCount, err = database.CountFeatures(ctx, name); err != nil {
			return nil, err
		}
		if status.Dates, err = database.DistinctDates(ctx, name); err != nil {
			return nil, err
		}
		if status.Imports, err = database.GetReportImports(ctx, name); err != nil {
			return nil, err
		}
		if completedSet, _, err = CompletedReports(ctx); err != nil {
			return nil, err
		}
	}

	available, err := reports.ListReports(cfg.Reports.Directory, cfg.Reports.Extension)
	if err != nil {
		return nil, err
	}
	status.Pending = reports.PendingReports(available, completedSet)
	return status, nil
}
