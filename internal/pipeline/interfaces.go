package pipeline

import (
	"context"

	"github.com/samvad-hq/samvad-news-digest/pkg/providers"
)

// FeedSource returns one page of raw articles for a query.
type FeedSource interface {
	FetchPage(ctx context.Context, req providers.PageRequest) (providers.Page, error)
}

// BatchSummarizer returns exactly one summary per text, in order. It must not fail.
type BatchSummarizer interface {
	SummarizeBatch(ctx context.Context, texts []string) []string
}

// Translator returns text translated into target, or text unchanged on failure.
type Translator interface {
	Translate(ctx context.Context, text, target string) string
}
