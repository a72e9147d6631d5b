package feed

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// FetcherInterface is the slice of the fetcher the aggregator needs.
// An RSS fetcher never fails the batch: a broken source contributes zero
// items.
type FetcherInterface interface {
	FetchRSS(ctx context.Context, src Source) []Item
	FetchIncidents(ctx context.Context) ([]Item, error)
}

type Aggregator struct {
	fetcher FetcherInterface
	sources []Source
}

func NewAggregator(fetcher FetcherInterface, sources []Source) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		sources: sources,
	}
}

// Run fans out to every configured source concurrently, flattens the
// results, assigns final batch-unique IDs and composes the all-items view:
// raw feed overlaid with the deprecation, security and architecture
// enrichments plus the current incidents. Output ordering is deterministic
// regardless of fetch completion order because sorting happens after every
// fetch settles.
func (a *Aggregator) Run(ctx context.Context) (*Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	results := make([][]Item, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.fetcher.FetchRSS(ctx, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feed aggregation failed: %w", err)
	}

	var items []Item
	for _, batch := range results {
		items = append(items, batch...)
	}

	// Final ID pass over the whole merged batch: per-source suffixes are
	// unique within their batch but can collide across sources.
	for i := range items {
		items[i].ID = fmt.Sprintf("%s-%d", cmp.Or(items[i].GUID, "item"), i)
	}

	SortItems(items)

	// Incidents are best-effort in the composed view: the dedicated
	// incidents endpoint surfaces fetch failures, the aggregate does not.
	incidents, err := a.fetcher.FetchIncidents(ctx)
	if err != nil {
		slog.Warn("Incident fetch failed, composing without incidents", "error", err)
		incidents = nil
	}

	return &Payload{
		Title:       "Google Cloud Platform Feed",
		Description: "Aggregated updates from Google Cloud blogs, release notes, security bulletins and the Architecture Center",
		Items:       Compose(items, incidents),
	}, nil
}
