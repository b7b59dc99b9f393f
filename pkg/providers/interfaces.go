package providers

import (
	"context"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

// PageRequest asks a feed for one page of a query. An empty Cursor requests the first page.
type PageRequest struct {
	Query  domain.QueryState
	Cursor string
}

// Page is one batch of raw articles plus the opaque cursor for the next page ("" when none).
type Page struct {
	Articles []domain.Article
	NextPage string
}

// Fetcher is responsible for retrieving one page of articles for a provider.
// Concrete implementations live in provider-specific files (e.g., newsdata.go).
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, req PageRequest) (Page, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
