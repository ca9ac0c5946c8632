package poi

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapping-tomorrow/riskmap-cli/internal/cache"
	"github.com/mapping-tomorrow/riskmap-cli/internal/model"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/nominatim"
	"github.com/mapping-tomorrow/riskmap-cli/pkg/overpass"
)

type fakeResolver struct {
	place *nominatim.Place
	err   error
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, _ string) (*nominatim.Place, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.place, nil
}

type fakeQuerier struct {
	elements []overpass.Element
	err      error
	calls    int
}

func (q *fakeQuerier) QueryPoints(_ context.Context, _ int64, _ map[string][]string) ([]overpass.Element, error) {
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	return q.elements, nil
}

func pokharaResolver() *fakeResolver {
	return &fakeResolver{place: &nominatim.Place{
		OSMID:       4583145,
		OSMType:     "relation",
		DisplayName: "Pokhara, Kaski, Nepal",
	}}
}

func TestFetchPoints_NormalizesElements(t *testing.T) {
	querier := &fakeQuerier{elements: []overpass.Element{
		{Type: "node", ID: 1, Lat: 28.21, Lon: 83.98, Tags: map[string]string{
			"amenity": "waste_basket",
		}},
		{Type: "node", ID: 2, Lat: 28.22, Lon: 83.99, Tags: map[string]string{
			"amenity":  "recycling",
			"name":     "Lakeside Recycling",
			"operator": "Pokhara Metropolitan", // not queried, must be dropped
		}},
		{Type: "way", ID: 3, Tags: map[string]string{"amenity": "recycling"}},
	}}

	f := NewFetcher(pokharaResolver(), querier, nil)
	res := f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())

	require.Len(t, res.Features, 2, "non-node elements must be discarded")
	assert.Empty(t, res.Warnings)

	first := res.Features[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "waste_basket", first.Amenity)
	assert.Equal(t, model.GeoPoint{Lon: 83.98, Lat: 28.21}, first.Point)

	second := res.Features[1]
	assert.Equal(t, "Lakeside Recycling", second.Name)
	assert.NotContains(t, second.Attributes(), "operator",
		"attributes must be restricted to queried tags plus name")
}

func TestFetchPoints_ResolverFailureDegrades(t *testing.T) {
	f := NewFetcher(
		&fakeResolver{err: eris.New("connection refused")},
		&fakeQuerier{},
		nil,
	)
	res := f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())

	assert.Empty(t, res.Features)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "could not resolve place")
}

func TestFetchPoints_QueryFailureDegrades(t *testing.T) {
	f := NewFetcher(
		pokharaResolver(),
		&fakeQuerier{err: eris.New("overpass: returned status 429")},
		nil,
	)
	res := f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())

	assert.Empty(t, res.Features)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "could not fetch points")
}

func TestFetchPoints_UnresolvablePlaceDegrades(t *testing.T) {
	f := NewFetcher(
		&fakeResolver{err: nominatim.ErrPlaceNotFound},
		&fakeQuerier{},
		nil,
	)
	res := f.FetchPoints(context.Background(), "Nowhereville", model.DefaultTagFilter())

	assert.Empty(t, res.Features)
	assert.Len(t, res.Warnings, 1)
}

func TestFetchPoints_CacheHitSkipsUpstream(t *testing.T) {
	resolver := pokharaResolver()
	querier := &fakeQuerier{elements: []overpass.Element{
		{Type: "node", ID: 1, Lat: 28.21, Lon: 83.98, Tags: map[string]string{"amenity": "recycling"}},
	}}
	c := cache.NewMemory(8, 0)
	f := NewFetcher(resolver, querier, c)

	filter := model.DefaultTagFilter()
	first := f.FetchPoints(context.Background(), "Pokhara, Nepal", filter)
	require.Len(t, first.Features, 1)
	assert.False(t, first.CacheHit)

	second := f.FetchPoints(context.Background(), "Pokhara, Nepal", filter)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Features, second.Features,
		"cached calls must return identical results")
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, querier.calls)
}

func TestFetchPoints_CacheKeyedByPlaceAndFilter(t *testing.T) {
	querier := &fakeQuerier{}
	c := cache.NewMemory(8, 0)
	f := NewFetcher(pokharaResolver(), querier, c)

	f.FetchPoints(context.Background(), "Pokhara, Nepal", model.TagFilter{"amenity": {"recycling"}})
	f.FetchPoints(context.Background(), "Pokhara, Nepal", model.TagFilter{"amenity": {"waste_basket"}})

	assert.Equal(t, 2, querier.calls, "different filters must not share a cache entry")
}

func TestFetchPoints_FailuresAreNotCached(t *testing.T) {
	resolver := &fakeResolver{err: eris.New("temporary failure")}
	c := cache.NewMemory(8, 0)
	f := NewFetcher(resolver, &fakeQuerier{}, c)

	f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())
	f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())

	assert.Equal(t, 2, resolver.calls, "degraded results must not be cached")
}

func TestFetchPoints_EmptyResultIsValid(t *testing.T) {
	f := NewFetcher(pokharaResolver(), &fakeQuerier{}, nil)
	res := f.FetchPoints(context.Background(), "Pokhara, Nepal", model.DefaultTagFilter())

	assert.Empty(t, res.Features)
	assert.Empty(t, res.Warnings)
}
