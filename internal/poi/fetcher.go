// Package poi fetches tagged points of interest for a place and normalizes
// them into the analysis data model.
package poi

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mapping-tomorrow/riskmap-cli/internal/cache"
	"github.com/mapping-tomorrow/riskmap-cli/internal/metrics"
	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/nominatim"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/overpass"
)

// PlaceResolver resolves a place name to an OSM area.
type PlaceResolver interface {
	Resolve(ctx context.Context, placeName string) (*nominatim.Place, error)
}

// PointQuerier fetches tagged nodes inside an area.
type PointQuerier interface {
	QueryPoints(ctx context.Context, areaID int64, filter map[string][]string) ([]overpass.Element, error)
}

// Result is the outcome of one fetch. A fetch never fails: upstream errors
// degrade to an empty feature set with a recorded warning so the rest of the
// pipeline can proceed.
type Result struct {
	Features []model.PointFeature `json:"features"`
	Warnings []string             `json:"warnings,omitempty"`
	CacheHit bool                 `json:"cache_hit"`
}

// Fetcher is the Point Data Fetcher. The cache collaborator is injectable
// and may be nil (caching disabled).
type Fetcher struct {
	resolver PlaceResolver
	querier  PointQuerier
	cache    cache.Cache
}

// NewFetcher creates a Fetcher.
func NewFetcher(resolver PlaceResolver, querier PointQuerier, c cache.Cache) *Fetcher {
	return &Fetcher{resolver: resolver, querier: querier, cache: c}
}

// FetchPoints retrieves point features matching the tag filter within the
// named place. Results are cached by (place, filter). Non-point elements are
// discarded; attributes are restricted to the queried tags plus name.
func (f *Fetcher) FetchPoints(ctx context.Context, place string, filter model.TagFilter) Result {
	log := zap.L().With(zap.String("place", place))
	key := cache.Key(place, filter.Canonical())

	if f.cache != nil {
		if raw, ok := f.cache.Get(key); ok {
			var features []model.PointFeature
			if err := json.Unmarshal(raw, &features); err == nil {
				metrics.CacheHits.Inc()
				log.Debug("poi: cache hit", zap.Int("features", len(features)))
				return Result{Features: features, CacheHit: true}
			}
			log.Warn("poi: discarding undecodable cache entry")
		}
		metrics.CacheMisses.Inc()
	}

	metrics.FetchAttempts.Inc()

	resolved, err := f.resolver.Resolve(ctx, place)
	if err != nil {
		return f.degrade(log, fmt.Sprintf("could not resolve place %q: %v", place, err))
	}

	elements, err := f.querier.QueryPoints(ctx, resolved.AreaID(), filter)
	if err != nil {
		return f.degrade(log, fmt.Sprintf("could not fetch points for %q: %v", place, err))
	}

	features := make([]model.PointFeature, 0, len(elements))
	for _, el := range elements {
		feature, ok := toFeature(el, filter)
		if !ok {
			continue
		}
		features = append(features, feature)
	}

	log.Info("poi: fetched point features",
		zap.String("area", resolved.DisplayName),
		zap.Int("elements", len(elements)),
		zap.Int("features", len(features)),
	)

	if f.cache != nil {
		if raw, err := json.Marshal(features); err == nil {
			f.cache.Put(key, raw)
		}
	}
	return Result{Features: features}
}

// degrade logs the warning and returns the empty result that keeps the
// pipeline alive.
func (f *Fetcher) degrade(log *zap.Logger, warning string) Result {
	metrics.FetchFailures.Inc()
	log.Warn("poi: fetch degraded to empty result", zap.String("reason", warning))
	return Result{
		Features: []model.PointFeature{},
		Warnings: []string{warning},
	}
}

// toFeature converts an Overpass element into a PointFeature. Only nodes
// with valid coordinates qualify; lines and polygons tagged similarly are
// dropped here. Tags are restricted to the queried keys plus name.
func toFeature(el overpass.Element, filter model.TagFilter) (model.PointFeature, bool) {
	if el.Type != "node" {
		return model.PointFeature{}, false
	}
	pt := model.GeoPoint{Lon: el.Lon, Lat: el.Lat}
	if !pt.Valid() {
		return model.PointFeature{}, false
	}

	feature := model.PointFeature{
		ID:    el.ID,
		Point: pt,
	}
	for key := range filter {
		val, ok := el.Tags[key]
		if !ok {
			continue
		}
		if key == "amenity" {
			feature.Amenity = val
			continue
		}
		if feature.Extra == nil {
			feature.Extra = make(map[string]string)
		}
		feature.Extra[key] = val
	}
	if name, ok := el.Tags["name"]; ok {
		feature.Name = name
	}
	return feature, true
}
