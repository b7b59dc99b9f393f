package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
)

// Event is the payload published downstream for one enriched article.
type Event struct {
	ProviderID   string                 `json:"provider_id"`
	ProviderName string                 `json:"provider_name"`
	Query        domain.QueryState      `json:"query"`
	Article      domain.EnrichedArticle `json:"article"`
	AudioURL     string                 `json:"audio_url,omitempty"`
	CollectedAt  time.Time              `json:"collected_at"`
}

// NewEvent builds an Event for an article fetched from the given provider under query.
func NewEvent(providerID, providerName string, query domain.QueryState, article domain.EnrichedArticle) Event {
	return Event{
		ProviderID:   providerID,
		ProviderName: providerName,
		Query:        query,
		Article:      article,
		CollectedAt:  time.Now().UTC(),
	}
}

// attributes are the string attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"provider_id": e.ProviderID,
		"link":        e.Article.Link,
	}
	if e.Query.Category != "" {
		attrs["category"] = e.Query.Category
	}
	if e.Query.Language != "" {
		attrs["language"] = e.Query.Language
	}
	if e.Article.TranslatedLanguage != "" {
		attrs["translated_language"] = e.Article.TranslatedLanguage
	}
	return attrs
}
