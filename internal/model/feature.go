package model

import (
	"fmt"
	"sort"
	"strings"
)

// GeoPoint is a lon/lat coordinate pair in geographic WGS84 (EPSG:4326).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point lies inside the WGS84 coordinate domain.
func (p GeoPoint) Valid() bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lon, p.Lat)
}

// TagFilter selects which POI categories to fetch, keyed by OSM tag name
// (e.g. "amenity") with the set of accepted values.
type TagFilter map[string][]string

// DefaultTagFilter selects waste and recycling infrastructure.
func DefaultTagFilter() TagFilter {
	return TagFilter{
		"amenity": {"waste_basket", "recycling", "waste_transfer_station"},
	}
}

// Canonical returns a deterministic string form of the filter: keys sorted,
// values sorted within each key. Used for cache keys and query building.
func (f TagFilter) Canonical() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		vals := append([]string(nil), f[k]...)
		sort.Strings(vals)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, ","))
	}
	return b.String()
}

// PointFeature is one fetched point of interest. Produced by the fetcher and
// consumed read-only downstream; one per matched real-world object.
type PointFeature struct {
	// ID is the OSM node id of the feature.
	ID int64 `json:"id"`

	Point GeoPoint `json:"point"`

	// Amenity is the matched category value (e.g. "recycling").
	Amenity string `json:"amenity,omitempty"`

	// Name is the optional human-readable name tag.
	Name string `json:"name,omitempty"`

	// Extra holds queried tags beyond the known keys above.
	Extra map[string]string `json:"extra,omitempty"`
}

// Attributes returns the feature's tags as a flat map.
func (f PointFeature) Attributes() map[string]string {
	attrs := make(map[string]string, len(f.Extra)+2)
	for k, v := range f.Extra {
		attrs[k] = v
	}
	if f.Amenity != "" {
		attrs["amenity"] = f.Amenity
	}
	if f.Name != "" {
		attrs["name"] = f.Name
	}
	return attrs
}
