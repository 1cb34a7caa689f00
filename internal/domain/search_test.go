package domain

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	coord *Coordinate
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, _ string) *Coordinate {
	s.calls++
	return s.coord
}

func floatPtr(f float64) *float64 { return &f }

func pacificNorthwest() []Artist {
	return []Artist{
		{Name: "A", Genre: "rock", Location: "Seattle, Washington, United States",
			Coordinates: &Coordinate{Latitude: 47.6, Longitude: -122.3}},
		{Name: "B", Genre: "rock", Location: "Portland, Oregon, United States",
			Coordinates: &Coordinate{Latitude: 45.5, Longitude: -122.7}},
		{Name: "C", Genre: "rock", Location: "Seattle, Washington, United States"},
		{Name: "D", Genre: "rock", Location: "Austin, Texas, United States",
			Coordinates: &Coordinate{Latitude: 30.2672, Longitude: -97.7431}},
	}
}

func TestSearch_RadiusWithExplicitCenter(t *testing.T) {
	resolver := &stubResolver{}
	engine := NewSearchEngine(resolver, discardLogger())

	results, mode := engine.Search(context.Background(), pacificNorthwest(), SearchRequest{
		Latitude:    floatPtr(47.6),
		Longitude:   floatPtr(-122.3),
		RadiusMiles: floatPtr(250),
	})

	assert.True(t, mode.Spatial)
	assert.False(t, mode.Degraded)
	assert.Equal(t, 0, resolver.calls, "explicit coordinates must not trigger geocoding")

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Name)
	assert.Equal(t, "B", results[1].Name)

	require.NotNil(t, results[0].DistanceMi)
	require.NotNil(t, results[1].DistanceMi)
	assert.InDelta(t, 0, *results[0].DistanceMi, 0.01)
	assert.InDelta(t, 146, *results[1].DistanceMi, 3)
}

func TestSearch_DistancesRoundedToTwoDecimals(t *testing.T) {
	engine := NewSearchEngine(nil, discardLogger())

	results, _ := engine.Search(context.Background(), pacificNorthwest(), SearchRequest{
		Latitude:    floatPtr(47.6),
		Longitude:   floatPtr(-122.3),
		RadiusMiles: floatPtr(3000),
	})

	for _, artist := range results {
		if artist.DistanceMi == nil {
			continue
		}
		d := *artist.DistanceMi
		assert.Equal(t, math.Round(d*100)/100, d)
	}
}

func TestSearch_GeocodedCenter(t *testing.T) {
	resolver := &stubResolver{coord: &Coordinate{Latitude: 47.6, Longitude: -122.3}}
	engine := NewSearchEngine(resolver, discardLogger())

	results, mode := engine.Search(context.Background(), pacificNorthwest(), SearchRequest{
		Location:    "Seattle",
		RadiusMiles: floatPtr(250),
	})

	assert.True(t, mode.Spatial)
	assert.Equal(t, 1, resolver.calls, "the free-text location is geocoded exactly once")

	// A and B are within range; C has no coordinates but its location contains
	// "Seattle", so it survives via the per-candidate substring fallback and
	// sorts after every record with a computed distance.
	require.Len(t, results, 3)
	assert.Equal(t, "A", results[0].Name)
	assert.Equal(t, "B", results[1].Name)
	assert.Equal(t, "C", results[2].Name)
	assert.Nil(t, results[2].DistanceMi)
}

func TestSearch_UnresolvableLocation_FallsBackToSubstring(t *testing.T) {
	resolver := &stubResolver{coord: nil}
	engine := NewSearchEngine(resolver, discardLogger())
	candidates := pacificNorthwest()

	spatial, mode := engine.Search(context.Background(), candidates, SearchRequest{
		Location:    "Seattle",
		RadiusMiles: floatPtr(100),
	})
	assert.True(t, mode.Degraded)
	assert.False(t, mode.Spatial)

	plain, plainMode := engine.Search(context.Background(), candidates, SearchRequest{
		Location: "Seattle",
	})
	assert.False(t, plainMode.Spatial)
	assert.False(t, plainMode.Degraded)

	// The degraded spatial search and the explicit substring search must
	// produce the same result set in the same order.
	if diff := cmp.Diff(plain, spatial); diff != "" {
		t.Errorf("degraded search differs from substring search (-want +got):\n%s", diff)
	}
}

func TestSearch_NonSpatialFilters_ANDSemantics(t *testing.T) {
	engine := NewSearchEngine(nil, discardLogger())
	candidates := pacificNorthwest()

	results, mode := engine.Search(context.Background(), candidates, SearchRequest{
		Country: "united states",
		City:    "seattle",
	})

	assert.False(t, mode.Spatial)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Name)
	assert.Equal(t, "C", results[1].Name, "original relative order is preserved")
}

func TestSearch_NoFilters_ReturnsAllInOrder(t *testing.T) {
	engine := NewSearchEngine(nil, discardLogger())
	candidates := pacificNorthwest()

	results, _ := engine.Search(context.Background(), candidates, SearchRequest{})

	if diff := cmp.Diff(candidates, results); diff != "" {
		t.Errorf("unexpected result set (-want +got):\n%s", diff)
	}
}

func TestSearch_NonPositiveRadius_IsNotSpatial(t *testing.T) {
	resolver := &stubResolver{coord: &Coordinate{Latitude: 47.6, Longitude: -122.3}}
	engine := NewSearchEngine(resolver, discardLogger())

	for _, radius := range []float64{0, -10} {
		_, mode := engine.Search(context.Background(), pacificNorthwest(), SearchRequest{
			Location:    "Seattle",
			RadiusMiles: floatPtr(radius),
		})
		assert.False(t, mode.Spatial)
		assert.False(t, mode.Degraded)
	}
	assert.Equal(t, 0, resolver.calls, "inactive radius must not geocode")
}

func TestSearch_EmptyResult_IsNotAnError(t *testing.T) {
	engine := NewSearchEngine(nil, discardLogger())

	results, _ := engine.Search(context.Background(), pacificNorthwest(), SearchRequest{
		Location: "Reykjavik",
	})

	assert.Empty(t, results)
}
