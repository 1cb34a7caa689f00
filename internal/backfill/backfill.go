// Package backfill resolves coordinates for stored artists that have a
// location string but no coordinates yet, so radius searches do not depend on
// live geocoding for old records.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cfyby/artist-api/internal/domain"
)

// providerPause is the minimum gap between geocoding calls. Nominatim's usage
// policy allows at most one request per second.
const providerPause = time.Second

// CoordinateStore is the slice of the artist store the runner needs.
type CoordinateStore interface {
	FindArtistsMissingCoordinates(ctx context.Context, limit int) ([]domain.Artist, error)
	SetCoordinates(ctx context.Context, id string, coord domain.Coordinate) (domain.UpdateResult, error)
}

// Stats summarizes one backfill run.
type Stats struct {
	Scanned int
	Updated int
	Skipped int
}

// Runner walks artists missing coordinates and geocodes them one at a time.
type Runner struct {
	store    CoordinateStore
	resolver domain.LocationResolver
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewRunner(store CoordinateStore, resolver domain.LocationResolver, clock clockwork.Clock, logger *slog.Logger) *Runner {
	return &Runner{
		store:    store,
		resolver: resolver,
		clock:    clock,
		logger:   logger,
	}
}

// Run fetches up to limit artists missing coordinates and resolves each one.
// Unresolvable locations are counted as skipped, not errors; the run keeps
// going. A cancelled context stops the run after the current record.
func (r *Runner) Run(ctx context.Context, limit int) (Stats, error) {
	artists, err := r.store.FindArtistsMissingCoordinates(ctx, limit)
	if err != nil {
		return Stats{}, fmt.Errorf("list artists missing coordinates: %w", err)
	}

	var stats Stats
	for i, artist := range artists {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if i > 0 {
			r.clock.Sleep(providerPause)
		}
		stats.Scanned++

		coord := r.resolver.Resolve(ctx, artist.Location)
		if coord == nil {
			stats.Skipped++
			r.logger.Warn("could not resolve location",
				"artist", artist.Name,
				"location", artist.Location,
			)
			continue
		}

		result, err := r.store.SetCoordinates(ctx, artist.ID, *coord)
		if err != nil {
			return stats, fmt.Errorf("store coordinates for %q: %w", artist.Name, err)
		}
		if result.MatchedCount == 0 {
			stats.Skipped++
			r.logger.Warn("artist disappeared during backfill", "artist", artist.Name)
			continue
		}

		stats.Updated++
		r.logger.Info("backfilled coordinates",
			"artist", artist.Name,
			"latitude", coord.Latitude,
			"longitude", coord.Longitude,
		)
	}

	return stats, nil
}
