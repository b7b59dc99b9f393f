package dispatch

import (
	"context"

	"github.com/samvad-hq/samvad-news-digest/pkg/publishers"
)

// Ledger remembers which article links were already published.
type Ledger interface {
	Published(link string) (bool, error)
	MarkPublished(link string) error
}

// EventPublisher publishes an event and reports how many sinks accepted it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// AudioLinker builds a playable audio URL for a summary.
type AudioLinker interface {
	AudioURL(text string) (string, error)
}
