package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL  = "http://localhost:3001/api"
	maxErrorDetail  = 200
	requestIDHeader = "X-Request-ID"
)

// APIError is returned for any non-2xx response. It unwraps to [shared.ErrAPIRequest].
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout bounds each request. Zero leaves the transport defaults in place.
	Timeout time.Duration
	Breaker shared.BreakerConfig
	Logger  *log.Logger
}

// Client talks to the DreamSprout backend: dream storage for signed-in users and the generation endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *log.Logger
	now        func() time.Time
}

// NewClient creates a new backend client.
func NewClient(opts ClientOpts) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Timeout > 0 {
		c := *httpClient
		c.Timeout = opts.Timeout
		httpClient = &c
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
	if opts.Breaker.Enabled {
		client.breaker = newBreaker(opts.Breaker, logger)
	}
	return client
}

// BaseURL returns the backend root all paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func newBreaker(config shared.BreakerConfig, logger *log.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dreamsprout-api",
		MaxRequests: config.MaxRequests,
		Interval:    time.Duration(config.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(config.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Client errors mean the service is up.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// request describes one call to the backend.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	token       string
	body        any
	raw         []byte
	contentType string
	accept      string
}

// do sends r and returns the response body of a 2xx response.
//
// Transport failures are wrapped with the operation name; non-2xx responses become [*APIError].
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c.breaker == nil {
		return c.send(ctx, r)
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.send(ctx, r)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, r.op, err)
	}
	if err != nil {
		return nil, err
	}
	body, _ := out.([]byte)
	return body, nil
}

func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	fullURL := c.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", r.op, err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", r.op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", r.op, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%s: request failed: %w", r.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", r.op, err)
	}

	c.logger.Debug("request completed",
		"op", r.op, "method", r.method, "path", r.path,
		"status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: r.op, StatusCode: resp.StatusCode, Detail: errorDetail(data)}
	}

	return data, nil
}

// doJSON sends r and decodes a 2xx JSON response into result.
func (c *Client) doJSON(ctx context.Context, r request, result any) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", r.op, err)
	}
	return nil
}

// errorDetail extracts a message from an error body: {"error": ...}, {"message": ...} or the text itself.
func errorDetail(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail] + "..."
	}
	return detail
}

func requireToken(op, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%s: %w", op, shared.ErrNotAuthenticated)
	}
	return nil
}
