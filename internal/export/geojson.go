// Package export renders the pipeline's output collections for GIS
// consumers: GeoJSON for web maps, shapefiles for desktop tooling.
package export

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
)

// PointsGeoJSON encodes point features as a GeoJSON FeatureCollection.
func PointsGeoJSON(points []model.PointFeature) ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(points))
	for _, p := range points {
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{p.Point.Lon, p.Point.Lat}),
			Properties: toProperties(p.Attributes()),
		})
	}
	return marshalCollection(features, "export: encode points")
}

// ZonesGeoJSON encodes hazard zones as a GeoJSON FeatureCollection.
func ZonesGeoJSON(zones []model.HazardZone) ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(zones))
	for _, z := range zones {
		props := toProperties(z.Attributes())
		props["name"] = z.Name
		props["radius_meters"] = z.RadiusMeters
		features = append(features, &geojson.Feature{
			ID:         z.ID,
			Geometry:   z.Polygon,
			Properties: props,
		})
	}
	return marshalCollection(features, "export: encode zones")
}

// ExposuresGeoJSON encodes exposure records as point features carrying the
// union of point and zone attributes.
func ExposuresGeoJSON(records []model.RiskExposureRecord) ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(records))
	for _, r := range records {
		features = append(features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY,
				[]float64{r.Feature.Point.Lon, r.Feature.Point.Lat}),
			Properties: toProperties(r.Attributes()),
		})
	}
	return marshalCollection(features, "export: encode exposures")
}

func marshalCollection(features []*geojson.Feature, wrapMsg string) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: features}
	raw, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, wrapMsg)
	}
	return raw, nil
}

func toProperties(attrs map[string]string) map[string]interface{} {
	props := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		props[k] = v
	}
	return props
}
