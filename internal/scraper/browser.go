package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Response is an opened page. URL is where the request ended up after redirects.
// Body must be closed by the caller.
type Response struct {
	URL  string
	Body io.ReadCloser
}

// Browser opens pages the way a web browser would.
type Browser interface {
	Open(ctx context.Context, rawURL string) (*Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received status code %d for %s", e.StatusCode, e.URL)
}

// HTTPBrowser is a Browser on top of net/http with a cookie jar,
// fixed request headers and an optional rate limit.
type HTTPBrowser struct {
	Client  *http.Client
	Header  http.Header
	Limiter *rate.Limiter
}

// NewHTTPBrowser creates a browser sending userAgent. A requestsPerSecond of zero disables rate limiting.
func NewHTTPBrowser(userAgent string, requestsPerSecond float64) *HTTPBrowser {
	jar, _ := cookiejar.New(nil)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	b := &HTTPBrowser{
		Client: &http.Client{Jar: jar, Timeout: 2 * time.Minute},
		Header: http.Header{},
	}
	b.Header.Set("User-Agent", userAgent)
	b.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if requestsPerSecond > 0 {
		b.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return b
}

// Open issues a GET request. The body is decoded to UTF-8 based on the response's declared charset.
func (b *HTTPBrowser) Open(ctx context.Context, rawURL string) (*Response, error) {
	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	for k, v := range b.Header {
		req.Header[k] = v
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if decoded, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type")); err == nil {
		body = decoded
	}
	return &Response{
		URL:  resp.Request.URL.String(),
		Body: readCloser{Reader: body, Closer: resp.Body},
	}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
