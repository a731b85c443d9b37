// Package fetcher provides the HTTP client used to download pages for
// prefetching. One client instance is constructed at startup and handed to
// everything that needs the network; there is no process-global client.
package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Body size cap: search results occasionally point at huge pages or media
// served as text/html; reading past this is never useful for extraction.
const maxBodyBytes = 2 * 1024 * 1024

// Options configures the HTTP client.
type Options struct {
	UserAgent      string
	ConnectTimeout time.Duration
	// HostRate limits requests per second to a single host. The prefetch
	// pool hits many distinct hosts at once; this only throttles same-host
	// bursts within a batch.
	HostRate  rate.Limit
	HostBurst int
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "HTTP " + strconv.Itoa(e.Code)
}

// Client fetches pages with pooled connections and per-host politeness limits.
type Client struct {
	http *http.Client
	opts Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "websearch-cli/1.0"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.HostRate == 0 {
		opts.HostRate = 4
	}
	if opts.HostBurst == 0 {
		opts.HostBurst = 2
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		// No client-level timeout: every call site passes a context with
		// its own deadline, and the scheduler's per-item timeout must win.
		http:     &http.Client{Transport: transport},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch downloads a page and returns its body. A non-2xx response is a
// *StatusError; everything else is a transport error.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	return body, nil
}

// limiterFor returns the politeness limiter for the URL's host, creating it
// on first use.
func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(c.opts.HostRate, c.opts.HostBurst)
		c.limiters[host] = lim
	}
	return lim
}
