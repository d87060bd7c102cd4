// models/meta.go
package models

import "time"

// FeatureClass describes a feature table registered in the workspace.
type FeatureClass struct {
	Name         string `json:"name"`
	GeometryType string `json:"geometry_type"`
	SRSID        int    `json:"srs_id"`
}

// ReportImport is one row of the report import log.
type ReportImport struct {
	ID           int64     `db:"id" json:"id"`
	ReportFile   string    `db:"report_file" json:"report_file"`
	FeatureCount int       `db:"feature_count" json:"feature_count"`
	ImportedAt   time.Time `db:"imported_at" json:"imported_at"`
}

// ImportSummary reports what a single import run saw and did.
type ImportSummary struct {
	Available []string `json:"available"`
	Completed []string `json:"completed"`
	Pending   []string `json:"pending"`
	Imported  []string `json:"imported"`
	Skipped   []string `json:"skipped,omitempty"` // pending reports with no rows
	Features  int      `json:"features"`
}

// FeatureClassStatus is returned by the feature class status endpoint.
type FeatureClassStatus struct {
	FeatureClass
	FeatureCount int            `json:"feature_count"`
	Dates        []string       `json:"dates"`
	Pending      []string       `json:"pending"`
	Imports      []ReportImport `json:"imports"`
}
