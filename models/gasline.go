// models/gasline.go
package models

import "github.com/paulmach/orb"

// Attribute field names of the gas line feature class, in insert order.
const (
	FieldName     = "Name"
	FieldDate     = "Date"
	FieldPSI      = "PSI"
	FieldMaterial = "Material"
)

// GasLineFields lists the text fields added to a new feature class.
var GasLineFields = []string{FieldName, FieldDate, FieldPSI, FieldMaterial}

// ReportRecord is one row of a gas line report.
// Columns: group id, name, x, y, (unused), date, psi, material.
type ReportRecord struct {
	GroupID  string  `csv:"group_id"`
	Name     string  `csv:"name"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Date     string  `csv:"date"`
	PSI      string  `csv:"psi"`
	Material string  `csv:"material"`

	Line int `csv:"-"` // 1-based line number in the source report
}

// GasLine is a polyline feature assembled from a run of report records.
type GasLine struct {
	ObjectID int64          `json:"objectid,omitempty"`
	GroupID  string         `json:"-"` // not persisted
	Shape    orb.LineString `json:"-"`
	Name     string         `json:"name"`
	Date     string         `json:"date"`
	PSI      string         `json:"psi"`
	Material string         `json:"material"`
}

// Properties returns the attribute fields keyed by field name.
func (g GasLine) Properties() map[string]interface{} {
	return map[string]interface{}{
		FieldName:     g.Name,
		FieldDate:     g.Date,
		FieldPSI:      g.PSI,
		FieldMaterial: g.Material,
	}
}
