package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/services"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFeedBytes        = 10 << 20
	userAgent           = "podsum/0.1"
)

// Fetcher retrieves and parses RSS feeds over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher constructs a feed fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	if fetcher.httpClient == nil {
		fetcher.httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return fetcher
}

// Fetch downloads and parses one feed URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Channel, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "feed", "fetch", "url required", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "feed", "fetch", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "feed", "fetch", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrExternalService, "feed", "fetch",
			fmt.Sprintf("%s returned http %d", url, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "feed", "fetch", "read body", err)
	}
	if int64(len(body)) > maxFeedBytes {
		return nil, services.Wrap(services.ErrTooLarge, "feed", "fetch",
			fmt.Sprintf("feed exceeds %d bytes", maxFeedBytes), nil)
	}

	channel, err := Parse(body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "feed", "parse", url, err)
	}
	return channel, nil
}
