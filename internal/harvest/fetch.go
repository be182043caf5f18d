package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const defaultTimeout = 30 * time.Second

// ClientOptions configures the shared HTTP side of the harvest commands.
type ClientOptions struct {
	// UserAgent is sent on every request. The portal serves an error page
	// to clients without one.
	UserAgent string
	// Timeout bounds each request. Zero selects 30s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client wraps an HTTP client with the headers and decoding the portal
// needs.
type Client struct {
	http      *http.Client
	userAgent string
	log       *slog.Logger
}

// NewClient builds a harvest client, filling option defaults.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		log:       opts.Logger,
	}
}

// decorate sets the headers every portal request carries.
func (c *Client) decorate(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")
}

// fetchHTML GETs rawURL and parses the body as HTML. The portal still
// serves legacy charsets, so the body goes through a charset-aware reader
// keyed off the Content-Type header.
func (c *Client) fetchHTML(ctx context.Context, rawURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
