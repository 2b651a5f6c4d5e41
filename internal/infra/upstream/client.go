package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrRateLimited is returned when the upstream answers 429.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrServerError is returned for 5xx answers.
	ErrServerError = errors.New("upstream server error")
	// ErrUnexpectedStatus is returned for any other non-2xx answer. It is not retried.
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("upstream circuit open")
)

// Config controls timeouts, retries and the breaker for one upstream.
type Config struct {
	Name           string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client performs GET requests with retries, exponential backoff and a circuit breaker.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	retries int
	initial time.Duration
	max     time.Duration
	logger  *slog.Logger
}

// NewClient builds a client for one upstream API.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = 250 * time.Millisecond
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 2 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		name: cfg.Name,
		http: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		}),
		retries: retries,
		initial: initial,
		max:     maxBackoff,
		logger:  logger.With("component", "upstream", "upstream", cfg.Name),
	}
}

// GetJSON fetches rawURL and decodes a 2xx JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dst any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.once(ctx, rawURL)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if errors.Is(err, ErrUnexpectedStatus) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.retries {
			return nil, lastErr
		}

		delay := c.initial << attempt
		if delay > c.max {
			delay = c.max
		}
		c.logger.Debug("retrying upstream request", "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) once(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUnexpectedStatus, resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.name, err)
	}
	return body, nil
}
