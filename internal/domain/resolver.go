package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Geocoder resolves a free-text location to coordinates. A successful call
// with no match returns (nil, nil); failures return a *GeocodeError so the
// resolver can distinguish transient timeouts from hard service errors.
// The per-attempt timeout arrives through the context deadline.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (*Coordinate, error)
}

// GeocodeErrorKind classifies provider failures.
type GeocodeErrorKind int

const (
	// GeocodeErrorOther is any provider failure not listed below.
	GeocodeErrorOther GeocodeErrorKind = iota
	// GeocodeErrorTimeout means the attempt exceeded its deadline. Retryable.
	GeocodeErrorTimeout
	// GeocodeErrorUnavailable means the provider reported a service error
	// or could not be reached. Not retried for this use case.
	GeocodeErrorUnavailable
)

// GeocodeError is the typed failure returned by Geocoder implementations.
type GeocodeError struct {
	Kind    GeocodeErrorKind
	Message string
	Err     error
}

func (e *GeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GeocodeError) Unwrap() error { return e.Err }

// IsGeocodeTimeout reports whether err is a provider timeout.
func IsGeocodeTimeout(err error) bool {
	var geoErr *GeocodeError
	return errors.As(err, &geoErr) && geoErr.Kind == GeocodeErrorTimeout
}

const (
	defaultGeocodeRetries    = 3
	defaultGeocodeRetryDelay = time.Second
	defaultGeocodeTimeout    = 10 * time.Second
)

// ResolverConfig tunes the retry behavior of a Resolver. Zero values fall
// back to the defaults (3 attempts, 1s base delay, 10s per-attempt timeout).
type ResolverConfig struct {
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Resolver turns free-text locations into coordinates via a single external
// provider, absorbing every failure mode into a nil result. The provider
// handle is constructed lazily exactly once per process, safe under
// concurrent first use; construction is never retried.
type Resolver struct {
	newProvider func() Geocoder
	provider    Geocoder
	once        sync.Once

	retries    int
	retryDelay time.Duration
	timeout    time.Duration

	clock  clockwork.Clock
	logger *slog.Logger
}

// NewResolver creates a Resolver. newProvider is invoked at most once, on
// the first Resolve call that reaches the provider.
func NewResolver(newProvider func() Geocoder, cfg ResolverConfig, clock clockwork.Clock, logger *slog.Logger) *Resolver {
	if cfg.Retries <= 0 {
		cfg.Retries = defaultGeocodeRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultGeocodeRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeocodeTimeout
	}
	return &Resolver{
		newProvider: newProvider,
		retries:     cfg.Retries,
		retryDelay:  cfg.RetryDelay,
		timeout:     cfg.Timeout,
		clock:       clock,
		logger:      logger,
	}
}

// Resolve geocodes a location string. It returns nil for blank input, an
// unmatched location, a non-timeout provider error, or exhausted retries.
// Timeouts are retried with linear backoff: delay×1, delay×2, ... before
// attempts 2, 3, ... A nil result is a documented degradation, not an error.
func (r *Resolver) Resolve(ctx context.Context, location string) *Coordinate {
	if strings.TrimSpace(location) == "" {
		r.logger.Warn("empty location string provided")
		return nil
	}

	provider := r.providerHandle()

	for attempt := 1; attempt <= r.retries; attempt++ {
		if attempt > 1 {
			r.clock.Sleep(r.retryDelay * time.Duration(attempt-1))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		coord, err := provider.Geocode(attemptCtx, location)
		cancel()

		if err == nil {
			if coord == nil {
				r.logger.Warn("could not geocode location", "location", location)
				return nil
			}
			return coord
		}

		if IsGeocodeTimeout(err) {
			r.logger.Warn("geocoding timeout",
				"location", location,
				"attempt", attempt,
				"retries", r.retries,
			)
			continue
		}

		r.logger.Error("geocoding service error", "location", location, "error", err)
		return nil
	}

	r.logger.Error("geocoding failed after all attempts", "location", location, "attempts", r.retries)
	return nil
}

func (r *Resolver) providerHandle() Geocoder {
	r.once.Do(func() {
		r.provider = r.newProvider()
	})
	return r.provider
}
