// Package fetch downloads monthly listing pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/coauthor/internal/fsutil"
	"github.com/matsen/coauthor/internal/period"
)

const (
	// DefaultURLTemplate is formatted with the category and the period's yymm.
	DefaultURLTemplate = "https://arxiv.org/list/%s/%s?show=1000"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is one request every four seconds.
	DefaultRateLimit = 0.25

	// DefaultUserAgent identifies the client when none is configured.
	DefaultUserAgent = "coauthor/1.0"

	// DefaultMaxSize bounds a single listing body.
	DefaultMaxSize = 64 * 1024 * 1024
)

// Client is a rate-limited HTTP client for listing pages.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	urlTemplate string
	userAgent   string
	maxSize     int64
	logger      *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithURLTemplate sets the listing URL template (for mirrors and testing).
func WithURLTemplate(tmpl string) ClientOption {
	return func(c *Client) {
		if tmpl != "" {
			c.urlTemplate = tmpl
		}
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxSize sets the largest listing body accepted, in bytes.
func WithMaxSize(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new listing client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		urlTemplate: DefaultURLTemplate,
		userAgent:   DefaultUserAgent,
		maxSize:     DefaultMaxSize,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the listing address for a category and period.
func (c *Client) URL(category string, p period.Period) string {
	return fmt.Sprintf(c.urlTemplate, category, p.YYMM())
}

// Fetch downloads the listing page of a period. It does not retry.
func (c *Client) Fetch(ctx context.Context, category string, p period.Period) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	url := c.URL(category, p)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched listing",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := checkHTTPErrors(resp, url); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if int64(len(body)) > c.maxSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, c.maxSize)
	}
	return string(body), nil
}

// FetchToFile downloads a period's listing and writes it atomically to path.
func (c *Client) FetchToFile(ctx context.Context, category string, p period.Period, path string) error {
	text, err := c.Fetch(ctx, category, p)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}
	return nil
}
