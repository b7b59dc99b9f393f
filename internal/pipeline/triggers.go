package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
)

// Start runs the initial reset cycle.
func (o *Orchestrator) Start(ctx context.Context) (Outcome, error) {
	return o.RunFetchCycle(ctx, true)
}

// SetCountry changes the country and resets when the value changed.
func (o *Orchestrator) SetCountry(ctx context.Context, code string) (Outcome, error) {
	return o.updateQuery(ctx, func(q *domain.QueryState) { q.Country = code })
}

// SetLanguage changes the language and resets when the value changed.
func (o *Orchestrator) SetLanguage(ctx context.Context, code string) (Outcome, error) {
	return o.updateQuery(ctx, func(q *domain.QueryState) { q.Language = code })
}

// SetCategory changes the category and resets when the value changed.
func (o *Orchestrator) SetCategory(ctx context.Context, category string) (Outcome, error) {
	return o.updateQuery(ctx, func(q *domain.QueryState) { q.Category = category })
}

func (o *Orchestrator) updateQuery(ctx context.Context, apply func(*domain.QueryState)) (Outcome, error) {
	o.mu.Lock()
	next := o.query
	apply(&next)
	next = next.Normalized()
	if next == o.query {
		o.mu.Unlock()
		return Outcome{}, nil
	}
	o.query = next
	o.mu.Unlock()
	return o.RunFetchCycle(ctx, true)
}

// Search submits text as the search query. It always restarts, even for the same text.
func (o *Orchestrator) Search(ctx context.Context, text string) (Outcome, error) {
	o.mu.Lock()
	o.query.SearchText = strings.TrimSpace(text)
	o.searching = true
	o.mu.Unlock()
	return o.RunFetchCycle(ctx, true)
}

// ClearSearch drops the search text and restarts.
func (o *Orchestrator) ClearSearch(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	o.query.SearchText = ""
	o.mu.Unlock()
	return o.RunFetchCycle(ctx, true)
}

// LoadMore runs a continuation cycle.
func (o *Orchestrator) LoadMore(ctx context.Context) (Outcome, error) {
	return o.RunFetchCycle(ctx, false)
}

// SentinelVisible runs a continuation when more pages exist and nothing is
// fetching. Otherwise it does nothing.
func (o *Orchestrator) SentinelVisible(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	skip := o.state == StateFetching || !o.store.Pagination().HasMore
	o.mu.Unlock()
	if skip {
		return Outcome{}, nil
	}

	out, err := o.RunFetchCycle(ctx, false)
	if errors.Is(err, ErrCycleInFlight) || errors.Is(err, ErrNoMorePages) {
		return Outcome{}, nil
	}
	return out, err
}

// RequestTranslation translates the canonical summary of the article at index
// into lang and stores it as the article's translated summary. A failed
// translation stores the summary unchanged. The write is dropped with
// store.ErrStale when the store was reset while translating.
func (o *Orchestrator) RequestTranslation(ctx context.Context, index int, lang string) (domain.EnrichedArticle, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return domain.EnrichedArticle{}, errors.New("translation target language is required")
	}

	article, err := o.store.Get(index)
	if err != nil {
		return domain.EnrichedArticle{}, fmt.Errorf("request translation %d: %w", index, err)
	}

	translated := article.Summary
	if o.translator != nil {
		translated = o.translator.Translate(ctx, article.Summary, lang)
	}

	updated, err := o.store.SetTranslation(index, article.Link, translated, lang)
	if err != nil {
		o.log.DebugObj("dropping translation for replaced article", "translation", map[string]any{
			"index": index,
			"link":  article.Link,
			"lang":  lang,
		})
		return domain.EnrichedArticle{}, fmt.Errorf("request translation %d: %w", index, err)
	}
	return updated, nil
}
