// Package pipeline runs fetch cycles: feed call, batch summarization and merge
// into the enrichment store, plus per-article translation requests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/samvad-hq/samvad-news-digest/internal/metrics"
	"github.com/samvad-hq/samvad-news-digest/internal/store"
	"github.com/samvad-hq/samvad-news-digest/internal/summarizer"
	"github.com/samvad-hq/samvad-news-digest/pkg/providers"
)

var (
	// ErrCycleInFlight is returned for a continuation requested while a cycle is fetching.
	ErrCycleInFlight = errors.New("fetch cycle already in flight")

	// ErrNoMorePages is returned for a continuation after the feed reported no next page.
	ErrNoMorePages = errors.New("no more pages for the current query")
)

// State is the fetch cycle state.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
)

// Outcome describes the cycle a RunFetchCycle call ended with.
type Outcome struct {
	Reset      bool
	Added      int
	Dropped    int
	Pagination domain.PaginationState

	// Queued is set when the reset was handed to the cycle already in flight.
	Queued bool
	// Superseded is set when this call's first cycle was discarded in favour of a queued reset.
	Superseded bool
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State      State
	Last       State
	Searching  bool
	Query      domain.QueryState
	Pagination domain.PaginationState
	Articles   int
}

// Deps are the collaborators of an Orchestrator. Feed is required.
type Deps struct {
	Feed       FeedSource
	Summarizer BatchSummarizer
	Translator Translator
	Store      *store.Store
	Log        logger.Logger
}

// Orchestrator owns the query, the fetch state machine and the enrichment store.
type Orchestrator struct {
	feed       FeedSource
	summarizer BatchSummarizer
	translator Translator
	store      *store.Store
	log        logger.Logger

	mu           sync.Mutex
	query        domain.QueryState
	state        State
	last         State
	searching    bool
	generation   uint64
	pendingReset bool
}

// New builds an orchestrator for the initial query.
func New(deps Deps, query domain.QueryState) (*Orchestrator, error) {
	if deps.Feed == nil {
		return nil, fmt.Errorf("%w: feed source is required", domain.ErrConfiguration)
	}
	st := deps.Store
	if st == nil {
		st = store.New()
	}
	return &Orchestrator{
		feed:       deps.Feed,
		summarizer: deps.Summarizer,
		translator: deps.Translator,
		store:      st,
		log:        logger.Ensure(deps.Log),
		query:      query.Normalized(),
		state:      StateIdle,
		last:       StateIdle,
	}, nil
}

// Store returns the enrichment store.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Articles returns a snapshot of the stored articles.
func (o *Orchestrator) Articles() []domain.EnrichedArticle {
	return o.store.Snapshot()
}

// Query returns the active query.
func (o *Orchestrator) Query() domain.QueryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.query
}

// Status returns the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		State:      o.state,
		Last:       o.last,
		Searching:  o.searching,
		Query:      o.query,
		Pagination: o.store.Pagination(),
		Articles:   o.store.Len(),
	}
}

// RunFetchCycle fetches one page and merges it into the store, replacing the
// contents when reset is set and appending otherwise.
//
// Only one cycle runs at a time. A continuation during a cycle returns
// ErrCycleInFlight. A reset during a cycle supersedes it: the in-flight result
// is discarded and the reset runs on the in-flight call once its feed call
// returns, so this call returns at once with Outcome.Queued.
func (o *Orchestrator) RunFetchCycle(ctx context.Context, reset bool) (Outcome, error) {
	o.mu.Lock()
	if o.state == StateFetching {
		if !reset {
			o.mu.Unlock()
			return Outcome{}, ErrCycleInFlight
		}
		o.generation++
		o.pendingReset = true
		o.mu.Unlock()
		return Outcome{Reset: true, Queued: true}, nil
	}
	if !reset && !o.store.Pagination().HasMore {
		o.mu.Unlock()
		return Outcome{}, ErrNoMorePages
	}
	o.state = StateFetching
	o.generation++
	gen := o.generation
	o.mu.Unlock()

	superseded := false
	for {
		out, err := o.runCycle(ctx, reset, gen)

		o.mu.Lock()
		if o.pendingReset {
			o.pendingReset = false
			reset = true
			gen = o.generation
			superseded = true
			o.mu.Unlock()
			continue
		}
		o.state = StateIdle
		o.last = StateSuccess
		if err != nil {
			o.last = StateFailed
		}
		o.searching = false
		o.mu.Unlock()

		out.Superseded = superseded
		return out, err
	}
}

func (o *Orchestrator) runCycle(ctx context.Context, reset bool, gen uint64) (Outcome, error) {
	start := time.Now()
	defer func() { metrics.FetchDuration.Observe(time.Since(start).Seconds()) }()

	o.mu.Lock()
	query := o.query
	o.mu.Unlock()

	req := providers.PageRequest{Query: query}
	if reset {
		o.store.ResetCursor()
	} else {
		req.Cursor = o.store.Pagination().NextPageCursor
	}

	page, err := o.feed.FetchPage(ctx, req)
	if err != nil {
		if o.isCurrent(gen) {
			metrics.RecordCycle(reset, string(StateFailed))
			o.log.WarnObj("fetch cycle failed", "fetch_cycle", map[string]any{
				"reset": reset,
				"query": query,
				"kind":  domain.KindOf(err),
				"error": err.Error(),
			})
			return Outcome{Reset: reset, Pagination: o.store.Pagination()}, fmt.Errorf("fetch cycle: %w", err)
		}
		return o.discard(reset, query), nil
	}

	enriched := o.enrich(ctx, page.Articles)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return o.discard(reset, query), nil
	}

	var res store.MergeResult
	if reset {
		res = o.store.Replace(enriched)
	} else {
		res = o.store.Append(enriched)
	}
	o.store.SetPagination(page.NextPage)
	pagination := o.store.Pagination()

	metrics.RecordCycle(reset, string(StateSuccess))
	metrics.ArticlesMerged.Add(float64(res.Added))
	metrics.ArticlesDropped.Add(float64(res.Dropped))
	metrics.StoreSize.Set(float64(o.store.Len()))
	o.log.InfoObj("fetch cycle merged", "fetch_cycle", map[string]any{
		"reset":    reset,
		"query":    query,
		"received": len(page.Articles),
		"added":    res.Added,
		"dropped":  res.Dropped,
		"has_more": pagination.HasMore,
		"total":    o.store.Len(),
	})

	return Outcome{Reset: reset, Added: res.Added, Dropped: res.Dropped, Pagination: pagination}, nil
}

// enrich zips articles with their summaries by index.
func (o *Orchestrator) enrich(ctx context.Context, articles []domain.Article) []domain.EnrichedArticle {
	if len(articles) == 0 {
		return nil
	}
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.SummaryInput()
	}

	var summaries []string
	if o.summarizer != nil {
		summaries = o.summarizer.SummarizeBatch(ctx, texts)
	} else {
		summaries = summarizer.FallbackAll(texts)
	}

	out := make([]domain.EnrichedArticle, len(articles))
	for i, a := range articles {
		summary := ""
		if i < len(summaries) {
			summary = strings.TrimSpace(summaries[i])
		}
		if summary == "" {
			summary = summarizer.Fallback(texts[i])
		}
		out[i] = domain.EnrichedArticle{Article: a, Summary: summary}
	}
	return out
}

func (o *Orchestrator) isCurrent(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen == o.generation
}

func (o *Orchestrator) discard(reset bool, query domain.QueryState) Outcome {
	metrics.RecordCycle(reset, "superseded")
	o.log.DebugObj("discarding superseded fetch cycle", "fetch_cycle", map[string]any{
		"reset": reset,
		"query": query,
	})
	return Outcome{Reset: reset}
}
