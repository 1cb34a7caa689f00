package domain

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// SearchRequest describes one artist search. Latitude, Longitude, and
// RadiusMiles are pointers so "absent" and "zero" stay distinguishable; a
// present RadiusMiles > 0 activates spatial mode.
type SearchRequest struct {
	Country  string
	City     string
	Location string

	Latitude    *float64
	Longitude   *float64
	RadiusMiles *float64
}

// SearchMode reports how a search was actually executed, so the caller can
// log and count silent degradations without them leaking into the result set.
type SearchMode struct {
	// Spatial is true when radius filtering was applied.
	Spatial bool
	// Degraded is true when radius filtering was requested but fell back to
	// substring matching because no center coordinate could be resolved.
	Degraded bool
}

// LocationResolver is the slice of Resolver the search engine needs.
type LocationResolver interface {
	Resolve(ctx context.Context, location string) *Coordinate
}

// SearchEngine filters and ranks artist candidates. It owns no data: the
// caller supplies a read-only snapshot of candidates, and matched records
// come back with a computed distance attached where one exists.
type SearchEngine struct {
	resolver LocationResolver
	logger   *slog.Logger
}

// NewSearchEngine creates a SearchEngine. resolver may be nil, in which case
// free-text locations are never geocoded and radius requests degrade to
// substring matching.
func NewSearchEngine(resolver LocationResolver, logger *slog.Logger) *SearchEngine {
	return &SearchEngine{resolver: resolver, logger: logger}
}

// Search applies the request to the candidates and returns the matched set.
//
// With an active radius and a resolvable center, candidates with coordinates
// are kept iff their haversine distance is within the radius (distance
// rounded to 2 decimals and attached); candidates without coordinates fall
// back per record to substring matching on the request's location text.
// Results are ordered ascending by distance, records without one last.
//
// Without an active radius (absent, non-positive, or failed geocoding) the
// request's free-text filters apply with case-insensitive AND semantics and
// the candidates' original order is preserved. An empty result is returned
// as-is; the not-found distinction belongs to the caller.
func (e *SearchEngine) Search(ctx context.Context, candidates []Artist, req SearchRequest) ([]Artist, SearchMode) {
	radiusActive := req.RadiusMiles != nil && *req.RadiusMiles > 0
	requested := radiusActive

	var center *Coordinate
	if radiusActive {
		center = e.searchCenter(ctx, req)
		if center == nil {
			e.logger.Warn("no search center resolvable, falling back to string matching",
				"location", req.Location,
			)
			radiusActive = false
		}
	}

	mode := SearchMode{Spatial: radiusActive, Degraded: requested && !radiusActive}

	if !radiusActive {
		return e.filterByText(candidates, req), mode
	}

	results := make([]Artist, 0, len(candidates))
	for _, artist := range candidates {
		if artist.Coordinates != nil {
			d := Distance(center.Latitude, center.Longitude,
				artist.Coordinates.Latitude, artist.Coordinates.Longitude)
			if d <= *req.RadiusMiles {
				rounded := math.Round(d*100) / 100
				artist.DistanceMi = &rounded
				results = append(results, artist)
			}
			continue
		}
		// No coordinates on record: per-candidate substring fallback.
		if req.Location != "" && containsFold(artist.Location, req.Location) {
			results = append(results, artist)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return distanceOrInf(results[i]) < distanceOrInf(results[j])
	})

	return results, mode
}

// searchCenter prefers explicit coordinates and geocodes the free-text
// location at most once otherwise.
func (e *SearchEngine) searchCenter(ctx context.Context, req SearchRequest) *Coordinate {
	if req.Latitude != nil && req.Longitude != nil {
		return &Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	if req.Location == "" || e.resolver == nil {
		return nil
	}
	coord := e.resolver.Resolve(ctx, req.Location)
	if coord != nil {
		e.logger.Info("geocoded search location",
			"location", req.Location,
			"latitude", coord.Latitude,
			"longitude", coord.Longitude,
		)
	}
	return coord
}

// filterByText applies the request's free-text filters with implicit AND
// semantics, preserving candidate order.
func (e *SearchEngine) filterByText(candidates []Artist, req SearchRequest) []Artist {
	filters := make([]string, 0, 3)
	for _, f := range []string{req.Country, req.City, req.Location} {
		if f != "" {
			filters = append(filters, f)
		}
	}
	if len(filters) == 0 {
		return candidates
	}

	results := make([]Artist, 0, len(candidates))
	for _, artist := range candidates {
		matched := true
		for _, f := range filters {
			if !containsFold(artist.Location, f) {
				matched = false
				break
			}
		}
		if matched {
			results = append(results, artist)
		}
	}
	return results
}

func distanceOrInf(a Artist) float64 {
	if a.DistanceMi == nil {
		return math.Inf(1)
	}
	return *a.DistanceMi
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
