package api

import (
	"context"

	"github.com/cloudpulse/gcp-pulse/app/cache"
	"github.com/cloudpulse/gcp-pulse/app/feed"
	"github.com/cloudpulse/gcp-pulse/app/sources"
)

type AggregatorInterface interface {
	Run(ctx context.Context) (*feed.Payload, error)
}

var _ AggregatorInterface = (*feed.Aggregator)(nil)

type FetcherInterface interface {
	FetchIncidents(ctx context.Context) ([]feed.Item, error)
	FetchIPRanges(ctx context.Context) ([]byte, error)
	FetchGKEFeed(ctx context.Context, channel string) ([]byte, error)
}

var _ FetcherInterface = (*sources.Fetcher)(nil)
var _ feed.FetcherInterface = (*sources.Fetcher)(nil)

type Handler struct {
	aggregator  AggregatorInterface
	fetcher     FetcherInterface
	cache       *cache.Cache
	sourceCount int
}
