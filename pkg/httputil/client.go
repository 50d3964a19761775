package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/bondmaster/backend/pkg/logger"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

// RequestIDHeader is forwarded upstream when the context carries a request id
const RequestIDHeader = "X-Request-ID"

// ObserveFunc receives one finished upstream exchange. status is 0 on transport failure.
type ObserveFunc func(upstream string, status int, d time.Duration)

// Client wraps http.Client with pacing, retry and logging for one named upstream
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	upstream   string
	retry      RetryConfig
	limiter    *rate.Limiter
	shared     *redis.RateLimiter
	sharedCfg  redis.RateLimitConfig
	observe    ObserveFunc
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// New creates a client with a 30s timeout and 3 retries
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		upstream:   "upstream",
		retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// NewWithTimeout is New with a custom timeout; zero keeps the default
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	c := New(log)
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// Named labels logs and observations with the upstream name
func (c *Client) Named(upstream string) *Client {
	c.upstream = upstream
	c.logger = c.logger.WithField("upstream", upstream)
	return c
}

func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retry.MaxRetries = maxRetries
	c.retry.InitialDelay = initialDelay
	c.retry.Enabled = true
	return c
}

func (c *Client) DisableRetry() *Client {
	c.retry.Enabled = false
	return c
}

// WithLimiter paces requests through a process-local token bucket.
// rps <= 0 leaves the client unpaced.
func (c *Client) WithLimiter(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithRateLimiter adds the Redis limiter shared by every instance
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.shared = limiter
	c.sharedCfg = cfg
	return c
}

// WithObserver reports every exchange (after retries) to fn
func (c *Client) WithObserver(fn ObserveFunc) *Client {
	c.observe = fn
	return c
}

// PostJSON marshals data and posts it
func (c *Client) PostJSON(ctx context.Context, target string, data interface{}) (*http.Response, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Do executes a prepared request (custom headers such as Cookie/Referer).
// The request is rebound to ctx.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.do(req.WithContext(ctx))
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    redactQuery(req.URL),
	})

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if id := logger.RequestID(ctx); id != "" && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	var resp *http.Response
	var err error
	if c.retry.Enabled {
		resp, err = c.doWithRetry(req, log)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.observe != nil {
		c.observe(c.upstream, status, duration)
	}

	if err != nil {
		log.WithError(err).WithField("duration", duration.String()).Warn("HTTP request failed")
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"status_code": status,
		"duration":    duration.String(),
	}).Debug("HTTP request completed")
	return resp, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// the limiter refuses up front when the next token lands after the deadline
			if ctx.Err() == nil {
				if _, ok := ctx.Deadline(); ok {
					return fmt.Errorf("rate limit wait: %w (%v)", context.DeadlineExceeded, err)
				}
			}
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.sharedCfg); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	return nil
}

// doWithRetry retries 5xx and 429 with exponential backoff.
// A Retry-After header on the failed answer overrides the backoff, capped at MaxDelay.
func (c *Client) doWithRetry(req *http.Request, log *logger.Logger) (*http.Response, error) {
	ctx := req.Context()
	delay := c.retry.InitialDelay

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rewind request body: %w", bodyErr)
			}
			req.Body = body
		}

		resp, err = c.httpClient.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		wait := delay
		if resp != nil {
			if d, ok := retryAfter(resp); ok {
				wait = min(d, c.retry.MaxDelay)
			}
			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   wait.String(),
		}).Warn("Retrying HTTP request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		delay = min(delay*2, c.retry.MaxDelay)
	}

	return resp, err
}

func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// retryAfter reads a delta-seconds Retry-After header
func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// redactQuery drops query values from logged URLs (timestamps, page cursors)
func redactQuery(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}
