// services/export_service.go
package services

import (
	"context"
	"fmt"
	"io"

	"github.com/gewnthar/gaslines/config"
	"github.com/gewnthar/gaslines/database"
	"github.com/gewnthar/gaslines/models"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml"
	"go.uber.org/zap"
)

const (
	FormatGeoJSON = "geojson"
	FormatKML     = "kml"
)

// Export writes every feature of the configured feature class to w in the
// given format.
func Export(ctx context.Context, w io.Writer, format string) error {
	name := config.AppConfig.FeatureClass.Name
	lines, err := database.GetGasLines(ctx, name)
	if err != nil {
		return err
	}

	switch format {
	case FormatGeoJSON:
		err = writeGeoJSON(w, lines)
	case FormatKML:
		err = writeKML(w, name, lines)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to export %s as %s: %w", name, format, err)
	}

	logger().Info("Exported feature class",
		zap.String("feature_class", name), zap.String("format", format), zap.Int("features", len(lines)))
	return nil
}

func writeGeoJSON(w io.Writer, lines []models.GasLine) error {
	fc := geojson.NewFeatureCollection()
	for _, line := range lines {
		f := geojson.NewFeature(line.Shape)
		f.ID = line.ObjectID
		f.Properties = geojson.Properties(line.Properties())
		fc.Append(f)
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func writeKML(w io.Writer, name string, lines []models.GasLine) error {
	folder := kml.Folder(kml.Name(name))
	for _, line := range lines {
		coords := make([]kml.Coordinate, 0, len(line.Shape))
		for _, p := range line.Shape {
			coords = append(coords, kml.Coordinate{Lon: p.Lon(), Lat: p.Lat()})
		}
		folder.Add(kml.Placemark(
			kml.Name(line.Name),
			kml.Description(fmt.Sprintf("Date: %s, PSI: %s, Material: %s", line.Date, line.PSI, line.Material)),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}

	k := kml.KML(kml.Document(kml.Name(name), folder))
	return k.WriteIndent(w, "", "  ")
}
