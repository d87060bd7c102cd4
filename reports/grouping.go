// reports/grouping.go
package reports

import (
	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb"
)

// GroupLines partitions records into maximal runs of consecutive records
// with the same GroupID and builds one polyline per run. Points keep the
// record order. The attributes are taken from the last record of the run.
//
// A GroupID that reappears after a different one starts a new polyline.
func GroupLines(records []models.ReportRecord) []models.GasLine {
	var lines []models.GasLine
	for i, rec := range records {
		if i == 0 || rec.GroupID != records[i-1].GroupID {
			lines = append(lines, models.GasLine{GroupID: rec.GroupID})
		}

		line := &lines[len(lines)-1]
		line.Shape = append(line.Shape, orb.Point{rec.X, rec.Y})
		line.Name = rec.Name
		line.Date = rec.Date
		line.PSI = rec.PSI
		line.Material = rec.Material
	}
	return lines
}
