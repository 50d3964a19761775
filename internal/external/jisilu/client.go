// Package jisilu talks to the convertible bond listing source.
package jisilu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/session"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/httputil"
	"github.com/wonny/bondmaster/backend/pkg/logger"
	"github.com/wonny/bondmaster/backend/pkg/redis"
)

const (
	acceptJSON = "application/json, text/javascript, */*; q=0.01"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	maxBodyBytes = 16 << 20
)

// Client handles communication with the listing source
// ⭐ SSOT: 집사록(jisilu) 호출은 이 클라이언트에서만
//
// The client holds no session state: every call receives the caller's jar.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	userAgent  string
	now        func() time.Time
}

// NewClient creates a new listing source client.
// httpClient should have retry disabled: a failed page aborts the aggregation.
func NewClient(httpClient *httputil.Client, cfg config.JisiluConfig, log *logger.Logger) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("jisilu"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  ua,
		now:        time.Now,
	}
}

// Prime visits the listing page so the source can refresh its session cookies.
// The returned jar is jar merged with any Set-Cookie values; the response status is ignored.
func (c *Client) Prime(ctx context.Context, jar *session.Jar) (*session.Jar, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/data/cbnew/", nil, jar, acceptHTML, c.baseURL+"/")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, transportErr(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	primed := session.FromResponse(resp.Header)
	c.logger.WithFields(map[string]interface{}{
		"status":      resp.StatusCode,
		"new_cookies": primed.Len(),
	}).Debug("Session primed")

	return session.Merge(jar, primed), nil
}

// FetchPage fetches one listing page.
//
//	non-2xx            → UpstreamTransport (status + text)
//	login page         → AuthExpired
//	unknown 2xx body   → UpstreamShape
func (c *Client) FetchPage(ctx context.Context, jar *session.Jar, page, rp int) (*contracts.ListingPage, error) {
	pageURL := fmt.Sprintf("%s/data/cbnew/cb_list_new/?___jsl=LST___t=%d&page=%d&rp=%d",
		c.baseURL, c.now().UnixMilli(), page, rp)
	form := url.Values{
		"page": {strconv.Itoa(page)},
		"rp":   {strconv.Itoa(rp)},
	}

	req, err := c.newRequest(ctx, http.MethodPost, pageURL, strings.NewReader(form.Encode()), jar, acceptJSON, c.baseURL+"/data/cbnew/")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	body, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	listing, ok := decodeListing(body)
	if !ok {
		if isLoginPage(body) {
			return nil, contracts.NewAuthExpiredError()
		}
		c.logger.WithFields(map[string]interface{}{
			"page":    page,
			"preview": preview(body),
		}).Warn("Unexpected listing format")
		return nil, contracts.NewShapeError(fmt.Sprintf("page %d: no recognized listing envelope", page))
	}

	c.logger.WithFields(map[string]interface{}{
		"page": page,
		"rows": len(listing.Rows),
	}).Debug("Listing page fetched")

	return listing, nil
}

// FetchRedeem fetches the redemption status feed.
// Errors are returned as-is; callers treat this feed as best-effort.
func (c *Client) FetchRedeem(ctx context.Context, jar *session.Jar) (map[string]contracts.Redeem, error) {
	feedURL := fmt.Sprintf("%s/webapi/cb/redeem/?___t=%d", c.baseURL, c.now().UnixMilli())

	req, err := c.newRequest(ctx, http.MethodGet, feedURL, nil, jar, acceptJSON, c.baseURL+"/data/cbnew/")
	if err != nil {
		return nil, err
	}

	body, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, ok := decodeRedeemRows(body)
	if !ok {
		return nil, contracts.NewShapeError("redeem feed: no recognized envelope")
	}

	return redeemIndex(rows), nil
}

// newRequest builds a request carrying the browser headers the source expects
func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, jar *session.Jar, accept, referer string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", referer)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if accept == acceptJSON {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if cookie := jar.Header(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	return req, nil
}

// execute runs req and returns the body of a 2xx response
func (c *Client) execute(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, transportErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, contracts.NewTransportError(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportErr(ctx, fmt.Errorf("read response body failed: %w", err))
	}
	return body, nil
}

// transportErr classifies a failed round trip. Only the caller's own context
// counts as cancellation; a client-side timeout is an upstream failure.
func transportErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contracts.NewCanceledError(ctxErr)
	}
	// pacing gave up against the caller's deadline before ctx expired
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contracts.NewCanceledError(err)
	}
	return contracts.NewTransportError(0, "", err)
}

func preview(body []byte) string {
	const n = 200
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n])
}

// NewHTTPClient builds the outbound client for the listing source: no retries,
// paced by a local token bucket and, when given, the shared Redis limiter.
func NewHTTPClient(cfg config.JisiluConfig, log *logger.Logger, limiter *redis.RateLimiter) *httputil.Client {
	client := httputil.NewWithTimeout(log, cfg.Timeout).
		Named("jisilu").
		DisableRetry().
		WithLimiter(cfg.RequestsPerSecond, 1)
	if limiter != nil {
		client.WithRateLimiter(limiter, redis.JisiluRateLimit)
	}
	return client
}
