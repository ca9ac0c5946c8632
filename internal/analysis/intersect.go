// Package analysis computes which point features fall inside which hazard
// zones and orchestrates the full fetch → build → join pipeline.
package analysis

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/mapping-tomorrow/riskmap-cli/internal/metrics"
	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
)

// IntersectingPoints returns one RiskExposureRecord per (point, zone) pair
// whose geometries intersect. The test is boundary-inclusive: a point
// exactly on a zone edge counts. Empty inputs yield an empty result, and a
// point inside two overlapping zones yields two records. Record order
// follows input order but is not part of the contract.
//
// The join is a naive O(P×Z) scan; the zone count is a small constant, so a
// spatial index would buy nothing here.
func IntersectingPoints(points []model.PointFeature, zones []model.HazardZone) []model.RiskExposureRecord {
	var records []model.RiskExposureRecord
	for _, point := range points {
		for _, zone := range zones {
			if zone.Polygon == nil {
				continue
			}
			if polygonContains(zone.Polygon, point.Point) {
				records = append(records, model.RiskExposureRecord{
					Feature:  point,
					ZoneID:   zone.ID,
					ZoneName: zone.Name,
					RiskType: zone.RiskType,
					Severity: zone.Severity,
				})
				metrics.ExposureRecords.WithLabelValues(zone.RiskType).Inc()
			}
		}
	}
	return records
}

// polygonContains reports whether the point lies inside the polygon or on
// its boundary. A point inside a hole is outside, but a point on a hole's
// edge is still on the polygon boundary and counts as contained.
func polygonContains(polygon *geom.Polygon, p model.GeoPoint) bool {
	coord := geom.Coord{p.Lon, p.Lat}

	exterior := polygon.LinearRing(0).FlatCoords()
	if xy.IsOnLine(polygon.Layout(), coord, exterior) {
		return true
	}
	if !xy.IsPointInRing(polygon.Layout(), coord, exterior) {
		return false
	}

	for i := 1; i < polygon.NumLinearRings(); i++ {
		hole := polygon.LinearRing(i).FlatCoords()
		if xy.IsOnLine(polygon.Layout(), coord, hole) {
			return true
		}
		if xy.IsPointInRing(polygon.Layout(), coord, hole) {
			return false
		}
	}
	return true
}
