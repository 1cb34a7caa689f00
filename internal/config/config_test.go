package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURL)
	assert.Equal(t, "cfyby", cfg.MongoDatabase)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.False(t, cfg.CloudEnabled)
	assert.Equal(t, 30*time.Second, cfg.CloudTimeout)
	assert.Equal(t, 3, cfg.CloudMaxRetries)

	assert.Equal(t, "cfyby-artist-search", cfg.GeocoderUserAgent)
	assert.Equal(t, 10*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 3, cfg.GeocodeRetries)
	assert.Equal(t, time.Second, cfg.GeocodeRetryDelay)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("MONGO_URL", "mongodb://db.internal:27017")
	t.Setenv("MONGO_DATABASE", "artists-test")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("AWS_URL", "https://cloud.example.com")
	t.Setenv("AWS_TOKEN", "test-token")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("HTTP_MAX_RETRIES", "5")
	t.Setenv("GEOCODER_USER_AGENT", "custom-agent")
	t.Setenv("GEOCODE_RETRIES", "2")
	t.Setenv("GEOCODE_RETRY_DELAY", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017", cfg.MongoURL)
	assert.Equal(t, "artists-test", cfg.MongoDatabase)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	assert.True(t, cfg.CloudEnabled)
	assert.Equal(t, "https://cloud.example.com", cfg.CloudURL)
	assert.Equal(t, "test-token", cfg.CloudToken)
	assert.Equal(t, 5*time.Second, cfg.CloudTimeout)
	assert.Equal(t, 5, cfg.CloudMaxRetries)

	assert.Equal(t, "custom-agent", cfg.GeocoderUserAgent)
	assert.Equal(t, 2, cfg.GeocodeRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.GeocodeRetryDelay)
}

func TestLoad_CloudRequiresBothURLAndToken(t *testing.T) {
	t.Setenv("AWS_URL", "https://cloud.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CloudEnabled, "URL without token must not enable the cloud client")
}

func TestLoad_CloudURLSchemeValidated(t *testing.T) {
	t.Setenv("AWS_URL", "ftp://cloud.example.com")
	t.Setenv("AWS_TOKEN", "test-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_URL")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidMaxRetries(t *testing.T) {
	t.Setenv("HTTP_MAX_RETRIES", "many")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_MAX_RETRIES")
}

func TestLoad_NegativeMaxRetries(t *testing.T) {
	t.Setenv("HTTP_MAX_RETRIES", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_MAX_RETRIES")
}

func TestLoad_AuthRequiresCredentials(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", "secret")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SIGNING_KEY")
}
