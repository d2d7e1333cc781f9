package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Fetch-level error strings surfaced in FetchStats. A failing employer
// never aborts the sweep; these label why it was skipped.
const (
	ErrCompanyNotFound = "Company not found"
	ErrRateLimited     = "Rate limited"
	ErrTimeout         = "Timeout"
	ErrInvalidResponse = "Invalid response format"
)

// APIError is a non-2xx response from a source endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// RateLimitError signals a 429 or provider throttle; the sweep backs off
// and moves to the next employer rather than stalling in-process.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// FetchErrorLabel maps a transport error to the stats label for the employer
func FetchErrorLabel(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return ErrCompanyNotFound
		case http.StatusTooManyRequests:
			return ErrRateLimited
		}
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return ErrRateLimited
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var synErr *json.SyntaxError
	var typErr *json.UnmarshalTypeError
	if errors.As(err, &synErr) || errors.As(err, &typErr) {
		return ErrInvalidResponse
	}
	return err.Error()
}

// RetryPolicy defines bounded retry with exponential backoff for transient
// transport failures. Client errors other than 408/429 fail immediately.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewRetryPolicy creates the default transport retry policy
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        15 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func (p *RetryPolicy) shouldRetry(statusCode int, err error) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	if statusCode >= 400 && statusCode < 500 {
		return false
	}
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func (p *RetryPolicy) backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Client is the shared rate-limited HTTP helper used by every fetcher.
// Each source gets its own Client so the fixed inter-request delay is
// honored per source regardless of page-fetch concurrency.
type Client struct {
	httpClient *http.Client
	logger     arbor.ILogger
	retry      *RetryPolicy

	mu          sync.Mutex
	lastRequest time.Time
	delay       time.Duration
}

// NewClient creates a source-scoped HTTP client with a fixed inter-request
// delay and the default retry policy.
func NewClient(delay, timeout time.Duration, logger arbor.ILogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		retry:      NewRetryPolicy(),
		delay:      delay,
	}
}

// waitTurn blocks until the per-source delay since the previous request has
// elapsed, honoring cancellation.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	nextAllowed := c.lastRequest.Add(c.delay)
	var wait time.Duration
	if now.Before(nextAllowed) {
		wait = nextAllowed.Sub(now)
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetJSON fetches a URL and decodes the JSON body into result, retrying
// transient failures per the policy.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, result interface{}) error {
	body, err := c.getBody(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// GetBytes fetches a URL and returns the raw body (XML feeds)
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.getBody(ctx, url, headers)
}

func (c *Client) getBody(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err := c.waitTurn(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.doRequest(ctx, url, headers)
		lastErr, lastStatus = err, status
		if err == nil {
			return body, nil
		}

		if !c.retry.shouldRetry(status, err) {
			return nil, err
		}

		if attempt < c.retry.MaxAttempts-1 {
			backoff := c.retry.backoff(attempt)
			c.logger.Debug().
				Int("attempt", attempt+1).
				Int("status_code", status).
				Err(err).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	c.logger.Warn().
		Int("max_attempts", c.retry.MaxAttempts).
		Int("status_code", lastStatus).
		Err(lastErr).
		Str("url", url).
		Msg("All retry attempts exhausted")

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "laboro/"+versionForUA())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Minute
		return nil, resp.StatusCode, &RateLimitError{RetryAfter: retryAfter}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Endpoint:   url,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
