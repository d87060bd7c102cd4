// database/gpkg_geometry.go
package database

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// GeoPackage binary geometry header (OGC 12-128r18, 2.1.3).
const (
	gpkgMagic0  = 'G'
	gpkgMagic1  = 'P'
	gpkgVersion = 0

	gpkgFlagLittleEndian = 0x01
	gpkgFlagEnvelopeXY   = 0x01 << 1
	gpkgFlagEmpty        = 0x01 << 4
	gpkgEnvelopeMask     = 0x0e
)

// encodeGeoPackageGeometry returns ls as a GeoPackage geometry blob with an
// XY envelope and little-endian WKB body.
func encodeGeoPackageGeometry(ls orb.LineString, srsID int) ([]byte, error) {
	body, err := wkb.Marshal(ls, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WKB: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(8 + 32 + len(body))
	buf.Write([]byte{gpkgMagic0, gpkgMagic1, gpkgVersion})

	if len(ls) == 0 {
		buf.WriteByte(gpkgFlagLittleEndian | gpkgFlagEmpty)
		binary.Write(&buf, binary.LittleEndian, int32(srsID))
	} else {
		buf.WriteByte(gpkgFlagLittleEndian | gpkgFlagEnvelopeXY)
		binary.Write(&buf, binary.LittleEndian, int32(srsID))
		b := ls.Bound()
		for _, v := range []float64{b.Min.X(), b.Max.X(), b.Min.Y(), b.Max.Y()} {
			binary.Write(&buf, binary.LittleEndian, v)
		}
	}

	buf.Write(body)
	return buf.Bytes(), nil
}

// decodeGeoPackageGeometry parses a GeoPackage geometry blob holding a
// LineString and returns it with the stored srs id.
func decodeGeoPackageGeometry(b []byte) (orb.LineString, int, error) {
	if len(b) < 8 || b[0] != gpkgMagic0 || b[1] != gpkgMagic1 {
		return nil, 0, fmt.Errorf("not a GeoPackage geometry")
	}
	if b[2] != gpkgVersion {
		return nil, 0, fmt.Errorf("unsupported GeoPackage geometry version %d", b[2])
	}

	flags := b[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&gpkgFlagLittleEndian != 0 {
		order = binary.LittleEndian
	}
	srsID := int(int32(order.Uint32(b[4:8])))

	var envelopeSize int
	switch (flags & gpkgEnvelopeMask) >> 1 {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return nil, 0, fmt.Errorf("invalid GeoPackage envelope indicator in flags %#x", flags)
	}
	if len(b) < 8+envelopeSize {
		return nil, 0, fmt.Errorf("truncated GeoPackage geometry header")
	}

	g, err := wkb.Unmarshal(b[8+envelopeSize:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode WKB: %w", err)
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, 0, fmt.Errorf("expected LineString geometry, got %s", g.GeoJSONType())
	}
	return ls, srsID, nil
}
