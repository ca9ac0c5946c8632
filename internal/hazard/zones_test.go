package hazard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapping-tomorrow/riskmap-cli/internal/crs"
)

func TestBuild_Defaults(t *testing.T) {
	zones, err := Build(DefaultDefinitions())
	require.NoError(t, err)
	require.Len(t, zones, 2)

	flood := zones[0]
	assert.Equal(t, "seti-river-gorge", flood.ID)
	assert.Equal(t, "Flood Risk Zone", flood.RiskType)
	assert.Equal(t, "High", flood.Severity)
	assert.Equal(t, 1200.0, flood.RadiusMeters)
	assert.Equal(t, crs.WGS84, flood.Polygon.SRID())

	landslide := zones[1]
	assert.Equal(t, "sarangkot-slope", landslide.ID)
	assert.Equal(t, "Landslide Risk Zone", landslide.RiskType)
	assert.Equal(t, 1000.0, landslide.RadiusMeters)
}

// Every boundary vertex must sit within ±1% of the nominal radius when
// measured geodesically back to the center. A degree-based buffer fails this
// immediately: a 1200 m east-west offset in degrees shrinks by cos(lat).
func TestBuild_MetricRadiusInvariant(t *testing.T) {
	zones, err := Build([]Definition{{
		Name:         "Seti River Gorge",
		RiskType:     "Flood Risk Zone",
		Severity:     "High",
		Lon:          83.991,
		Lat:          28.228,
		RadiusMeters: 1200,
	}})
	require.NoError(t, err)
	require.Len(t, zones, 1)

	zone := zones[0]
	ring := zone.Polygon.Coords()[0]
	require.GreaterOrEqual(t, len(ring), circleSegments)

	for _, vertex := range ring {
		d := crs.Haversine(zone.Center.Lon, zone.Center.Lat, vertex[0], vertex[1])
		assert.InEpsilon(t, 1200.0, d, 0.01,
			"vertex (%f, %f) is %f m from center", vertex[0], vertex[1], d)
	}
}

func TestBuild_RingIsClosed(t *testing.T) {
	zones, err := Build(DefaultDefinitions())
	require.NoError(t, err)

	for _, zone := range zones {
		ring := zone.Polygon.Coords()[0]
		assert.Equal(t, ring[0], ring[len(ring)-1])
	}
}

func TestBuild_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"zero radius", Definition{Name: "z", Lon: 83.9, Lat: 28.2, RadiusMeters: 0}},
		{"negative radius", Definition{Name: "z", Lon: 83.9, Lat: 28.2, RadiusMeters: -5}},
		{"latitude out of range", Definition{Name: "z", Lon: 83.9, Lat: 95, RadiusMeters: 100}},
		{"missing name", Definition{Lon: 83.9, Lat: 28.2, RadiusMeters: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]Definition{tt.def})
			assert.Error(t, err)
		})
	}
}

func TestLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	content := `
zones:
  - name: Seti River Gorge
    risk_type: Flood Risk Zone
    severity: High
    lon: 83.991
    lat: 28.228
    radius_meters: 1200
  - name: Sarangkot Slope
    risk_type: Landslide Risk Zone
    severity: High
    lon: 83.954
    lat: 28.243
    radius_meters: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Seti River Gorge", defs[0].Name)
	assert.Equal(t, 1200.0, defs[0].RadiusMeters)
}

func TestLoadDefinitions_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDefinitions(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty zone list", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("zones: []\n"), 0o644))
		_, err := LoadDefinitions(path)
		assert.Error(t, err)
	})

	t.Run("invalid zone", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := "zones:\n  - name: Broken\n    lon: 83.9\n    lat: 28.2\n    radius_meters: -1\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := LoadDefinitions(path)
		assert.Error(t, err)
	})
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "seti-river-gorge", slug("Seti River Gorge"))
	assert.Equal(t, "sarangkot-slope", slug("  Sarangkot   Slope "))
}
