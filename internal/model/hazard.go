package model

import (
	"github.com/twpayne/go-geom"
)

// HazardZone is one buffered hazard polygon in geographic WGS84. Zones are
// rebuilt for every analysis run and never persisted.
type HazardZone struct {
	// ID is a stable slug derived from the zone name (e.g. "seti-river-gorge").
	ID string `json:"id"`

	Name     string `json:"name"`
	RiskType string `json:"risk_type"`
	Severity string `json:"severity"`

	// Center and RadiusMeters echo the definition the polygon was built from.
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`

	// Polygon carries SRID 4326.
	Polygon *geom.Polygon `json:"-"`
}

// Attributes returns the zone's attribute set.
func (z HazardZone) Attributes() map[string]string {
	return map[string]string{
		"risk_type": z.RiskType,
		"severity":  z.Severity,
	}
}

// RiskExposureRecord pairs one PointFeature with one HazardZone it
// intersects. A point inside two overlapping zones yields two records.
type RiskExposureRecord struct {
	Feature  PointFeature `json:"feature"`
	ZoneID   string       `json:"zone_id"`
	ZoneName string       `json:"zone_name"`
	RiskType string       `json:"risk_type"`
	Severity string       `json:"severity"`
}

// Attributes returns the union of the feature's and zone's attribute sets.
// Zone attributes win on key collision, mirroring a right-side join suffix.
func (r RiskExposureRecord) Attributes() map[string]string {
	attrs := r.Feature.Attributes()
	attrs["risk_type"] = r.RiskType
	attrs["severity"] = r.Severity
	attrs["zone_id"] = r.ZoneID
	return attrs
}
