package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/cloudpulse/gcp-pulse/app/cfg"
	"github.com/cloudpulse/gcp-pulse/app/feed"
)

// ErrUnknownChannel is returned for GKE channel values outside
// stable/regular/rapid.
var ErrUnknownChannel = fmt.Errorf("unknown GKE release channel")

// Fetcher retrieves raw upstream content. RSS fetch failures are resolved
// to an empty batch at this boundary so one broken feed never aborts an
// aggregation cycle.
type Fetcher struct {
	catalog   *Catalog
	client    *http.Client
	parser    *gofeed.Parser
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
}

func NewFetcher(catalog *Catalog) *Fetcher {
	appCfg := cfg.Get()

	return &Fetcher{
		catalog:   catalog,
		client:    &http.Client{Timeout: 30 * time.Second},
		parser:    gofeed.NewParser(),
		limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		userAgent: appCfg.UserAgent,
		timeout:   time.Duration(appCfg.FetchTimeout) * time.Second,
	}
}

// FetchRSS retrieves and normalizes one RSS/Atom source. Any failure
// (network, non-2xx, parse) is logged and yields an empty batch.
func (f *Fetcher) FetchRSS(ctx context.Context, src feed.Source) []feed.Item {
	data, err := f.get(ctx, src.URL)
	if err != nil {
		slog.Warn("Feed fetch failed", "source", src.Name, "url", src.URL, "error", err)
		return nil
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed", "source", src.Name, "url", src.URL, "error", err)
		return nil
	}

	items := feed.NormalizeBatch(src, parsed.Items, time.Now().UTC())
	slog.Debug("Feed fetched", "source", src.Name, "items", len(items))
	return items
}

// FetchIncidents retrieves the service health incident document. The
// status endpoint rejects default Go clients, hence the browser-like
// User-Agent set by get.
func (f *Fetcher) FetchIncidents(ctx context.Context) ([]feed.Item, error) {
	data, err := f.get(ctx, f.catalog.IncidentsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}

	items, err := parseIncidents(data, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to parse incidents: %w", err)
	}

	feed.SortIncidents(items)
	return items, nil
}

// FetchIPRanges returns the upstream Cloud IP-ranges JSON document
// verbatim.
func (f *Fetcher) FetchIPRanges(ctx context.Context) ([]byte, error) {
	data, err := f.get(ctx, f.catalog.IPRangesURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch IP ranges: %w", err)
	}
	return data, nil
}

// FetchGKEFeed returns the raw release-notes XML for one GKE channel.
func (f *Fetcher) FetchGKEFeed(ctx context.Context, channel string) ([]byte, error) {
	url, ok := f.catalog.GKEFeeds[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	data, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GKE %s channel feed: %w", channel, err)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
