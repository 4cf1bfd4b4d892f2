package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
)

// Document is a page fetched without a browser.
type Document struct {
	URL         string
	Status      int
	ContentType string
	HTML        string
}

// Fetcher loads pages over HTTP, remembering the last page as referer.
type Fetcher struct {
	http      *client.Client
	userAgent string
	logger    *zap.Logger

	mu      sync.Mutex
	referer string
}

// NewFetcher creates a fetcher on the given client.
func NewFetcher(c *client.Client, logger *zap.Logger) *Fetcher {
	return &Fetcher{http: c, userAgent: DefaultUserAgent, logger: logging.OrNop(logger)}
}

// Fetch GETs rawURL and returns its body decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("fetch %q: not an http(s) url", rawURL)
	}

	req, err := f.http.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetHeaders(map[string]string{
		"User-Agent":      f.userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})
	f.mu.Lock()
	if f.referer != "" {
		req.SetHeader("Referer", f.referer)
	}
	f.mu.Unlock()

	resp, err := f.http.ExecuteWithBreaker(func() (*resty.Response, error) {
		return req.Get(rawURL)
	})
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s (url: %s)", status, resp.Status(), rawURL)
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body from %s (status: %d)", rawURL, status)
	}

	contentType := resp.Header().Get("Content-Type")
	html, err := scraper.Decode(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}

	final := rawURL
	if r := resp.RawResponse; r != nil && r.Request != nil && r.Request.URL != nil {
		final = r.Request.URL.String()
	}
	f.mu.Lock()
	f.referer = final
	f.mu.Unlock()

	f.logger.Debug("page fetched", zap.String("url", final), zap.Int("status", status), zap.Int("bytes", len(body)))
	return &Document{URL: final, Status: status, ContentType: contentType, HTML: html}, nil
}
