package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapping-tomorrow/riskmap-cli/internal/analysis"
	"github.com/mapping-tomorrow/riskmap-cli/internal/config"
	"github.com/mapping-tomorrow/riskmap-cli/internal/hazard"
	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
)

type stubRunner struct {
	result    *analysis.Result
	err       error
	lastPlace string
}

func (s *stubRunner) run(_ context.Context, place string) (*analysis.Result, error) {
	s.lastPlace = place
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testResult(t *testing.T) *analysis.Result {
	t.Helper()
	zones, err := hazard.Build(hazard.DefaultDefinitions())
	require.NoError(t, err)

	points := []model.PointFeature{
		{ID: 1, Point: model.GeoPoint{Lon: 83.991, Lat: 28.228}, Amenity: "recycling"},
		{ID: 2, Point: model.GeoPoint{Lon: 85.324, Lat: 27.717}, Amenity: "waste_basket"},
	}
	return &analysis.Result{
		RunID:     "test-run",
		Place:     "Pokhara, Nepal",
		Points:    points,
		Zones:     zones,
		Exposures: analysis.IntersectingPoints(points, zones),
	}
}

func setTestConfig(t *testing.T) {
	t.Helper()
	old := cfg
	cfg = &config.Config{Place: "Pokhara, Nepal"}
	t.Cleanup(func() { cfg = old })
}

func TestRouter_Health(t *testing.T) {
	setTestConfig(t)
	router := newRouter(&stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRouter_Summary(t *testing.T) {
	setTestConfig(t)
	runner := &stubRunner{result: testResult(t)}
	router := newRouter(runner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pokhara, Nepal", runner.lastPlace)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["points"])
	assert.Equal(t, float64(2), body["zones"])
	assert.Equal(t, float64(1), body["exposures"])
	assert.Equal(t, float64(1), body["exposed_points"])
	assert.InDelta(t, 0.5, body["exposure_share"].(float64), 1e-9)
}

func TestRouter_PlaceOverride(t *testing.T) {
	setTestConfig(t)
	runner := &stubRunner{result: testResult(t)}
	router := newRouter(runner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary?place=Butwal%2C+Nepal", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Butwal, Nepal", runner.lastPlace)
}

func TestRouter_Collections(t *testing.T) {
	setTestConfig(t)
	runner := &stubRunner{result: testResult(t)}
	router := newRouter(runner)

	for _, path := range []string{"/api/points", "/api/zones", "/api/exposures"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"FeatureCollection"`)
		})
	}
}

func TestRouter_RunError(t *testing.T) {
	setTestConfig(t)
	router := newRouter(&stubRunner{err: eris.New("zone config broken")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/points", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "zone config broken")
}

func TestRouter_Metrics(t *testing.T) {
	setTestConfig(t)
	router := newRouter(&stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "riskmap_")
}

func TestPrintSummary(t *testing.T) {
	setTestConfig(t)
	var b strings.Builder
	r := testResult(t)
	r.Warnings = []string{"could not fetch points"}

	printSummary(&b, r)
	out := b.String()

	assert.Contains(t, out, "Pokhara, Nepal")
	assert.Contains(t, out, "Points in risk areas: 1 (50.0% of total)")
	assert.Contains(t, out, "warning: could not fetch points")
}

func TestPrintSummary_OverlappingZonesCountPointsOnce(t *testing.T) {
	setTestConfig(t)
	r := &analysis.Result{
		Place:  "Pokhara, Nepal",
		Points: []model.PointFeature{{ID: 1}, {ID: 2}},
		Exposures: []model.RiskExposureRecord{
			{Feature: model.PointFeature{ID: 1}, ZoneID: "seti-river-gorge"},
			{Feature: model.PointFeature{ID: 1}, ZoneID: "sarangkot-slope"},
		},
	}

	var b strings.Builder
	printSummary(&b, r)

	assert.Contains(t, b.String(), "Points in risk areas: 1 (50.0% of total)")
}
