package export

import (
	"path/filepath"
	"strconv"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
)

// WritePointsShapefile writes point features to a POINT shapefile with their
// id, amenity and name as DBF attributes.
func WritePointsShapefile(path string, points []model.PointFeature) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.StringField("ID", 20),
		shp.StringField("AMENITY", 32),
		shp.StringField("NAME", 64),
	})

	for i, p := range points {
		w.Write(&shp.Point{X: p.Point.Lon, Y: p.Point.Lat})
		w.WriteAttribute(i, 0, strconv.FormatInt(p.ID, 10))
		w.WriteAttribute(i, 1, p.Amenity)
		w.WriteAttribute(i, 2, p.Name)
	}

	zap.L().Info("export: wrote points shapefile",
		zap.String("path", path), zap.Int("points", len(points)))
	return nil
}

// WriteZonesShapefile writes hazard zones to a POLYGON shapefile. Shapefile
// outer rings are clockwise, so the WGS84 ring is reversed on the way out.
func WriteZonesShapefile(path string, zones []model.HazardZone) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.StringField("ID", 32),
		shp.StringField("NAME", 64),
		shp.StringField("RISK_TYPE", 32),
		shp.StringField("SEVERITY", 16),
	})

	for i, z := range zones {
		poly, err := zonePolygon(z)
		if err != nil {
			return err
		}
		w.Write(poly)
		w.WriteAttribute(i, 0, z.ID)
		w.WriteAttribute(i, 1, z.Name)
		w.WriteAttribute(i, 2, z.RiskType)
		w.WriteAttribute(i, 3, z.Severity)
	}

	zap.L().Info("export: wrote zones shapefile",
		zap.String("path", path), zap.Int("zones", len(zones)))
	return nil
}

// WriteShapefiles writes points.shp and zones.shp into dir.
func WriteShapefiles(dir string, points []model.PointFeature, zones []model.HazardZone) error {
	if err := WritePointsShapefile(filepath.Join(dir, "points.shp"), points); err != nil {
		return err
	}
	return WriteZonesShapefile(filepath.Join(dir, "zones.shp"), zones)
}

func zonePolygon(z model.HazardZone) (*shp.Polygon, error) {
	if z.Polygon == nil || z.Polygon.NumLinearRings() == 0 {
		return nil, eris.Errorf("export: zone %q has no polygon", z.ID)
	}
	ring := z.Polygon.Coords()[0]

	points := make([]shp.Point, len(ring))
	box := shp.Box{MinX: ring[0][0], MinY: ring[0][1], MaxX: ring[0][0], MaxY: ring[0][1]}
	for i, c := range ring {
		// Reverse to clockwise orientation.
		points[len(ring)-1-i] = shp.Point{X: c[0], Y: c[1]}
		if c[0] < box.MinX {
			box.MinX = c[0]
		}
		if c[0] > box.MaxX {
			box.MaxX = c[0]
		}
		if c[1] < box.MinY {
			box.MinY = c[1]
		}
		if c[1] > box.MaxY {
			box.MaxY = c[1]
		}
	}

	return &shp.Polygon{
		Box:       box,
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}, nil
}
