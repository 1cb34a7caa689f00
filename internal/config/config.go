package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MongoURL      string
	MongoDatabase string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cloud service client configuration.
	CloudURL        string
	CloudToken      string
	CloudTimeout    time.Duration
	CloudMaxRetries int
	CloudEnabled    bool

	// Geocoding configuration.
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocodeRetries    int
	GeocodeRetryDelay time.Duration

	// Token auth for the write endpoints; disabled when the key is empty.
	AuthSigningKey   string
	AuthUsername     string
	AuthPasswordHash string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored for local
// development; a missing one is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cloudTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cloudMaxRetries, err := parseInt("HTTP_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geocodeRetries, err := parseInt("GEOCODE_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	geocodeRetryDelay, err := parseDuration("GEOCODE_RETRY_DELAY", "1s")
	if err != nil {
		return nil, err
	}

	cloudURL := os.Getenv("AWS_URL")
	cloudToken := os.Getenv("AWS_TOKEN")

	cfg := &Config{
		MongoURL:      envOrDefault("MONGO_URL", "mongodb://localhost:27017"),
		MongoDatabase: envOrDefault("MONGO_DATABASE", "cfyby"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8000"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CloudURL:        cloudURL,
		CloudToken:      cloudToken,
		CloudTimeout:    cloudTimeout,
		CloudMaxRetries: cloudMaxRetries,
		CloudEnabled:    cloudURL != "" && cloudToken != "",

		GeocoderUserAgent: envOrDefault("GEOCODER_USER_AGENT", "cfyby-artist-search"),
		GeocoderTimeout:   geocoderTimeout,
		GeocodeRetries:    geocodeRetries,
		GeocodeRetryDelay: geocodeRetryDelay,

		AuthSigningKey:   os.Getenv("AUTH_SIGNING_KEY"),
		AuthUsername:     os.Getenv("AUTH_USERNAME"),
		AuthPasswordHash: os.Getenv("AUTH_PASSWORD_HASH"),
	}

	if cfg.MongoURL == "" {
		return nil, errors.New("MONGO_URL is required")
	}
	if cfg.MongoDatabase == "" {
		return nil, errors.New("MONGO_DATABASE is required")
	}
	if cfg.CloudEnabled && !hasHTTPScheme(cfg.CloudURL) {
		return nil, errors.New("AWS_URL must start with http:// or https://")
	}
	if cfg.CloudMaxRetries < 0 {
		return nil, errors.New("HTTP_MAX_RETRIES must not be negative")
	}
	if cfg.AuthSigningKey != "" && (cfg.AuthUsername == "" || cfg.AuthPasswordHash == "") {
		return nil, errors.New("AUTH_SIGNING_KEY is set but AUTH_USERNAME or AUTH_PASSWORD_HASH is not")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func hasHTTPScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
