package crs

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Geometry pairs a go-geom geometry with the EPSG code its coordinates are
// expressed in. Downstream code never handles a bare geometry, so a CRS
// mismatch is always visible at the type level.
type Geometry struct {
	EPSG int
	T    geom.T
}

// NewGeometry tags a geometry with its EPSG code and stamps the SRID.
func NewGeometry(epsg int, g geom.T) Geometry {
	switch gt := g.(type) {
	case *geom.Point:
		gt.SetSRID(epsg)
	case *geom.Polygon:
		gt.SetSRID(epsg)
	case *geom.MultiPolygon:
		gt.SetSRID(epsg)
	case *geom.LineString:
		gt.SetSRID(epsg)
	}
	return Geometry{EPSG: epsg, T: g}
}

// transformCoord maps one lon/lat or easting/northing pair between CRSes.
func transformCoord(from, to int, x, y float64) (float64, float64, error) {
	switch {
	case from == to:
		return x, y, nil
	case from == WGS84:
		return ToUTM(to, x, y)
	case to == WGS84:
		return ToWGS84(from, x, y)
	default:
		// UTM to UTM goes through geographic coordinates.
		lon, lat, err := ToWGS84(from, x, y)
		if err != nil {
			return 0, 0, err
		}
		return ToUTM(to, lon, lat)
	}
}

// Transform reprojects the geometry into the target CRS and returns a new
// tagged geometry. The source geometry is not modified.
func (g Geometry) Transform(to int) (Geometry, error) {
	if g.EPSG == to {
		return g, nil
	}

	switch gt := g.T.(type) {
	case *geom.Point:
		c := gt.Coords()
		x, y, err := transformCoord(g.EPSG, to, c[0], c[1])
		if err != nil {
			return Geometry{}, err
		}
		p := geom.NewPointFlat(geom.XY, []float64{x, y}).SetSRID(to)
		return Geometry{EPSG: to, T: p}, nil

	case *geom.Polygon:
		rings := gt.Coords()
		out := make([][]geom.Coord, len(rings))
		for i, ring := range rings {
			outRing := make([]geom.Coord, len(ring))
			for j, c := range ring {
				x, y, err := transformCoord(g.EPSG, to, c[0], c[1])
				if err != nil {
					return Geometry{}, err
				}
				outRing[j] = geom.Coord{x, y}
			}
			out[i] = outRing
		}
		p := geom.NewPolygon(geom.XY).SetSRID(to)
		if _, err := p.SetCoords(out); err != nil {
			return Geometry{}, eris.Wrap(err, "crs: rebuild polygon")
		}
		return Geometry{EPSG: to, T: p}, nil

	default:
		return Geometry{}, eris.Errorf("crs: transform not supported for %T", g.T)
	}
}
