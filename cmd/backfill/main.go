// Command backfill resolves coordinates for stored artists that have a
// location string but none saved, writing the results back to MongoDB.
// Radius searches then rank those records without any live geocoding.
//
// Usage:
//
//	go run ./cmd/backfill -limit 100
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/cfyby/artist-api/internal/adapter/nominatim"
	"github.com/cfyby/artist-api/internal/backfill"
	"github.com/cfyby/artist-api/internal/config"
	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/observability"
	"github.com/cfyby/artist-api/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "backfill:", err)
		os.Exit(1)
	}
}

func run() error {
	limit := flag.Int("limit", 0, "maximum records to process, 0 for all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, "text")
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := store.NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDatabase, logger)
	if err != nil {
		return err
	}
	defer s.Close(context.Background()) //nolint:errcheck // best-effort disconnect

	resolver := domain.NewResolver(
		func() domain.Geocoder {
			return nominatim.NewClient(cfg.GeocoderUserAgent, metrics, logger)
		},
		domain.ResolverConfig{
			Retries:    cfg.GeocodeRetries,
			RetryDelay: cfg.GeocodeRetryDelay,
			Timeout:    cfg.GeocoderTimeout,
		},
		clock,
		logger,
	)

	runner := backfill.NewRunner(s, resolver, clock, logger)
	stats, err := runner.Run(ctx, *limit)
	if err != nil {
		return err
	}

	logger.Info("backfill complete",
		"scanned", stats.Scanned,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
	)
	return nil
}
