package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cfyby/artist-api/internal/observability"
)

const retrySleep = time.Second

// Config holds the settings for a cloud service client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the remote artist service with bearer authentication,
// classifying every failure into one of the kinds in errors.go. Transient
// failures are retried with a fixed one second pause; a request makes at most
// MaxRetries+1 attempts.
type Client struct {
	baseURL    string
	token      string
	maxRetries int
	httpClient *http.Client

	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New validates cfg and builds a Client. Invalid settings return a
// configuration error rather than failing later at request time.
func New(cfg Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &Error{Kind: KindConfiguration, Message: "base URL is required"}
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &Error{Kind: KindConfiguration, Message: fmt.Sprintf("invalid base URL %q", cfg.BaseURL)}
	}
	if cfg.Token == "" {
		return nil, &Error{Kind: KindConfiguration, Message: "authentication token is required"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		return nil, &Error{Kind: KindConfiguration, Message: "max retries must not be negative"}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Get issues an authenticated GET and decodes the JSON object response.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST with a JSON body and decodes the JSON
// object response.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindClient, Message: "encode request body", Err: err}
		}
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var lastErr *Error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			c.metrics.CloudRetries.Inc()
			c.clock.Sleep(retrySleep)
		}

		result, attemptErr := c.attempt(ctx, method, endpoint, payload)
		if attemptErr == nil {
			c.metrics.CloudRequests.WithLabelValues(method, "success").Inc()
			return result, nil
		}

		lastErr = attemptErr
		if !attemptErr.Retryable() {
			break
		}

		c.logger.Warn("cloud service request failed, retrying",
			"method", method,
			"path", path,
			"kind", attemptErr.Kind.String(),
			"attempt", attempt,
			"max_attempts", c.maxRetries+1,
		)
	}

	c.metrics.CloudRequests.WithLabelValues(method, lastErr.Kind.String()).Inc()
	c.logger.Error("cloud service request failed",
		"method", method,
		"path", path,
		"kind", lastErr.Kind.String(),
		"status", lastErr.StatusCode,
		"error", lastErr.Message,
	)
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte) (map[string]any, *Error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.CloudDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, Message: fmt.Sprintf("request to %s timed out", endpoint), Err: err}
		}
		return nil, &Error{Kind: KindConnection, Message: fmt.Sprintf("could not connect to %s", endpoint), Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) (map[string]any, *Error) {
	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		var result map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, &Error{
				Kind:       KindService,
				StatusCode: resp.StatusCode,
				Message:    "invalid JSON in response body",
				Err:        err,
			}
		}
		return result, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &Error{
			Kind:       KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "invalid or expired authentication token",
		}

	case resp.StatusCode == http.StatusForbidden:
		return nil, &Error{
			Kind:       KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "insufficient permissions or access denied",
		}

	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return nil, &Error{
			Kind:       KindClient,
			StatusCode: resp.StatusCode,
			Message:    errorDetail(resp),
		}

	default:
		return nil, &Error{
			Kind:       KindService,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("service returned status %d", resp.StatusCode),
		}
	}
}

// errorDetail extracts a human-readable message from a 4xx body, preferring
// the "detail" and "message" fields the service is known to use.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return fmt.Sprintf("request rejected with status %d", resp.StatusCode)
	}

	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		for _, key := range []string{"detail", "message"} {
			if s, ok := parsed[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("request rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
