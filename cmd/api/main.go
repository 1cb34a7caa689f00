package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/cfyby/artist-api/internal/adapter/cloud"
	"github.com/cfyby/artist-api/internal/adapter/nominatim"
	"github.com/cfyby/artist-api/internal/adapter/rest"
	"github.com/cfyby/artist-api/internal/config"
	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/observability"
	"github.com/cfyby/artist-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	artistStore, err := store.NewMongoStore(ctx, cfg.MongoURL, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}

	// The geocoding provider is constructed lazily inside the resolver, on
	// the first search that needs it.
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
	searchEngine := domain.NewSearchEngine(resolver, logger)

	var cloudClient rest.CloudAPI
	if cfg.CloudEnabled {
		client, err := cloud.New(cloud.Config{
			BaseURL:    cfg.CloudURL,
			Token:      cfg.CloudToken,
			Timeout:    cfg.CloudTimeout,
			MaxRetries: cfg.CloudMaxRetries,
		}, clock, metrics, logger)
		if err != nil {
			logger.Error("failed to configure cloud service client", "error", err)
			os.Exit(1)
		}
		cloudClient = client
		logger.Info("cloud service client enabled", "url", cfg.CloudURL)
	} else {
		logger.Info("cloud service client disabled")
	}

	var tokens *rest.TokenService
	if cfg.AuthSigningKey != "" {
		tokens = rest.NewTokenService(cfg.AuthSigningKey, cfg.AuthUsername, cfg.AuthPasswordHash, clock)
		logger.Info("token auth enabled for write endpoints")
	} else {
		logger.Warn("token auth disabled, write endpoints are open")
	}

	srv := rest.NewServer(rest.ServerOptions{
		Addr:    cfg.HTTPAddr,
		Store:   artistStore,
		Search:  searchEngine,
		Cloud:   cloudClient,
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := artistStore.Close(shutdownCtx); err != nil {
		logger.Error("mongodb disconnect error", "error", err)
	}

	logger.Info("shutdown complete")
}
