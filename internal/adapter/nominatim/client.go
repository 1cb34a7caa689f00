package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cfyby/artist-api/internal/domain"
	"github.com/cfyby/artist-api/internal/observability"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org/search"

// Client implements domain.Geocoder using the OSM Nominatim search API.
// Nominatim requires an identifying User-Agent and allows at most one
// request per second; the resolver and backfill job pace their calls
// accordingly.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client. The per-attempt timeout is
// imposed by the caller through the request context, not by the transport.
func NewClient(userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{},
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves a free-text location to coordinates. A successful lookup
// with no match returns (nil, nil).
func (c *Client) Geocode(ctx context.Context, location string) (*domain.Coordinate, error) {
	params := url.Values{
		"q":      {location},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.GeocodeError{Message: "create geocode request", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.metrics.GeocodeRequests.WithLabelValues("timeout").Inc()
			return nil, &domain.GeocodeError{
				Kind:    domain.GeocodeErrorTimeout,
				Message: fmt.Sprintf("geocode request for %q timed out", location),
				Err:     err,
			}
		}
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, &domain.GeocodeError{
			Kind:    domain.GeocodeErrorUnavailable,
			Message: "geocoding provider unreachable",
			Err:     err,
		}
	}
	defer resp.Body.Close()
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		kind := domain.GeocodeErrorOther
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.GeocodeErrorUnavailable
		}
		return nil, &domain.GeocodeError{
			Kind:    kind,
			Message: fmt.Sprintf("nominatim status %d: %s", resp.StatusCode, body),
		}
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, &domain.GeocodeError{Message: "decode geocode response", Err: err}
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	coord, err := places[0].coordinate()
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, &domain.GeocodeError{Message: "parse geocode response", Err: err}
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	c.logger.Debug("geocoded location",
		"location", location,
		"display_name", places[0].DisplayName,
		"latitude", coord.Latitude,
		"longitude", coord.Longitude,
	)
	return coord, nil
}

// Nominatim API response types. Coordinates arrive as strings.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (p place) coordinate() (*domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("longitude %q: %w", p.Lon, err)
	}
	return &domain.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
