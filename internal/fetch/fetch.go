// Package fetch retrieves the provider CSV dataset over HTTP.
//
// The remote "backend" is a manually edited static file behind a CDN, so
// every request carries a cache-busting query parameter and cache-bypassing
// headers. Retry policy is deliberately NOT implemented here; the provider
// store owns backoff so the policy stays in one place.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "localwise-directory/1.0"

// NetworkError represents a transport failure or a non-2xx response.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when the request never produced a response
	Cause      error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch %s: HTTP status %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Options configures fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher retrieves text resources with cache busting.
type Fetcher struct {
	client *http.Client
	opts   *Options

	// now is swappable for tests; it feeds the cache-busting parameter.
	now func() time.Time
}

// New creates a Fetcher. A nil opts uses DefaultOptions.
func New(opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		now:    time.Now,
	}
}

// Fetch retrieves the body of urlStr as text.
//
// A monotonically changing "_t" query parameter defeats edge/CDN caching of
// the static file, and the request asks intermediaries not to serve cached
// copies. Returns *NetworkError on transport failure or non-2xx status.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &NetworkError{URL: urlStr, Cause: fmt.Errorf("invalid URL: %w", err)}
	}

	q := parsed.Query()
	q.Set("_t", strconv.FormatInt(f.now().UnixMilli(), 10))
	parsed.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", &NetworkError{URL: urlStr, Cause: err}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: urlStr, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: urlStr, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{URL: urlStr, StatusCode: resp.StatusCode, Cause: err}
	}

	return string(body), nil
}
