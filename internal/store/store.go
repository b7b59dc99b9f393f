// Package store holds the ordered, link-deduplicated set of enriched articles
// and the pagination state of the active query. All access is serialized.
package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
)

var (
	// ErrIndexOutOfRange is returned when no article exists at the index.
	ErrIndexOutOfRange = errors.New("article index out of range")

	// ErrStale is returned when a write targets an article that is no longer at its index.
	ErrStale = errors.New("article no longer present at index")
)

// MergeResult reports how many incoming articles were stored and how many were duplicates.
type MergeResult struct {
	Added   int
	Dropped int
}

// Store is the enrichment store.
type Store struct {
	mu         sync.RWMutex
	articles   []domain.EnrichedArticle
	links      map[string]struct{}
	pagination domain.PaginationState
}

// New returns an empty store. HasMore starts true so the first continuation is allowed.
func New() *Store {
	return &Store{
		links:      make(map[string]struct{}),
		pagination: domain.PaginationState{HasMore: true},
	}
}

// Replace discards the current contents and stores items in order.
func (s *Store) Replace(items []domain.EnrichedArticle) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles = nil
	s.links = make(map[string]struct{}, len(items))
	return s.appendLocked(items)
}

// Append stores items after the existing contents. An item whose link is
// already stored, or repeated earlier in items, is dropped.
func (s *Store) Append(items []domain.EnrichedArticle) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(items)
}

func (s *Store) appendLocked(items []domain.EnrichedArticle) MergeResult {
	var res MergeResult
	for _, item := range items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			res.Dropped++
			continue
		}
		if _, exists := s.links[link]; exists {
			res.Dropped++
			continue
		}
		item = item.Clone()
		item.Link = link
		if strings.TrimSpace(item.Summary) == "" {
			item.Summary = item.SummaryInput()
		}
		s.links[link] = struct{}{}
		s.articles = append(s.articles, item)
		res.Added++
	}
	return res
}

// Snapshot returns a deep copy of the stored articles in order.
func (s *Store) Snapshot() []domain.EnrichedArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EnrichedArticle, len(s.articles))
	for i, a := range s.articles {
		out[i] = a.Clone()
	}
	return out
}

// Len returns the number of stored articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// Get returns a copy of the article at index.
func (s *Store) Get(index int) (domain.EnrichedArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.articles) {
		return domain.EnrichedArticle{}, ErrIndexOutOfRange
	}
	return s.articles[index].Clone(), nil
}

// SetTranslation sets the translated summary of the article at index, provided
// it still has the given link. Summary is never touched; a previous translation
// is overwritten.
func (s *Store) SetTranslation(index int, link, text, lang string) (domain.EnrichedArticle, error) {
	if index < 0 {
		return domain.EnrichedArticle{}, ErrIndexOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index >= len(s.articles) || s.articles[index].Link != strings.TrimSpace(link) {
		return domain.EnrichedArticle{}, ErrStale
	}
	translated := text
	s.articles[index].TranslatedSummary = &translated
	s.articles[index].TranslatedLanguage = strings.ToLower(strings.TrimSpace(lang))
	return s.articles[index].Clone(), nil
}

// Pagination returns the current pagination state.
func (s *Store) Pagination() domain.PaginationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// SetPagination records the cursor of the latest page. HasMore follows the cursor.
func (s *Store) SetPagination(cursor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination = domain.PaginationState{
		NextPageCursor: cursor,
		HasMore:        cursor != "",
	}
}

// ResetCursor discards pagination ahead of a reset cycle. Until the reset
// succeeds no continuation is possible.
func (s *Store) ResetCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagination = domain.PaginationState{}
}
