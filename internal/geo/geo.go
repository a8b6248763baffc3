package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/unitcore/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Positions are stored as EPSG:3857 points. SQLite has no spatial types, so
// points travel as WKB and are read back through geom's Scan.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Coordinate systems accepted by ProjectionFor.
const (
	Cartesian = "cartesian"
	WGS84     = "wgs84"
)

// ParsePosition parses "x,y" or "x,y,z" into a core.Position3D.
// Surrounding brackets and whitespace are ignored.
func ParsePosition(coords string) (core.Position3D, error) {
	coords = strings.Trim(strings.TrimSpace(coords), "[]")
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Position3D{}, ErrInvalidCoordinates
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Position3D{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	return core.Position3D{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// PointFromPosition converts a position to an XYZ point.
func PointFromPosition(p core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Z:    p.Z,
		Type: geom.DimXYZ,
	})
}

// PositionFromPoint converts a point back into a position. Empty points yield the origin.
func PositionFromPoint(pt geom.Point) core.Position3D {
	c, ok := pt.Coordinates()
	if !ok {
		return core.Position3D{}
	}
	return core.Position3D{X: c.X, Y: c.Y, Z: c.Z}
}

// ProjectWGS84 treats X as longitude and Y as latitude and returns the
// EPSG:3857 position. Z is kept as elevation.
func ProjectWGS84(p core.Position3D) core.Position3D {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(p.X, p.Y, 0)
	return core.Position3D{X: x, Y: y, Z: p.Z}
}

// ProjectionFor returns the projection for the configured coordinate system.
// Cartesian input needs none, so the result is nil.
func ProjectionFor(system string) (func(core.Position3D) core.Position3D, error) {
	switch strings.ToLower(system) {
	case "", Cartesian:
		return nil, nil
	case WGS84:
		return ProjectWGS84, nil
	default:
		return nil, fmt.Errorf("unknown coordinate system %q", system)
	}
}
