// Package dispatch publishes enriched articles that were not published before.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/samvad-hq/samvad-news-digest/internal/metrics"
	"github.com/samvad-hq/samvad-news-digest/pkg/providers"
	"github.com/samvad-hq/samvad-news-digest/pkg/publishers"
	"github.com/samvad-hq/samvad-news-digest/pkg/speech"
)

// Result summarizes one Dispatch call.
type Result struct {
	Published int
	Failed    int
}

// Service turns enriched articles into events and hands them to the publisher.
type Service struct {
	publisher EventPublisher
	ledger    Ledger
	audio     AudioLinker
	log       logger.Logger
}

// NewService wires a dispatcher. audio may be nil to publish events without audio URLs.
func NewService(pub EventPublisher, ledger Ledger, audio AudioLinker, log logger.Logger) *Service {
	return &Service{
		publisher: pub,
		ledger:    ledger,
		audio:     audio,
		log:       logger.Ensure(log),
	}
}

// Pending returns the indexes of articles whose link is not in the ledger.
// A ledger lookup failure counts as not published.
func (s *Service) Pending(articles []domain.EnrichedArticle) []int {
	out := make([]int, 0, len(articles))
	for i, a := range articles {
		if s.ledger == nil {
			out = append(out, i)
			continue
		}
		published, err := s.ledger.Published(a.Link)
		if err != nil {
			s.log.WarnObj("ledger lookup failed; treating article as new", "ledger_error", map[string]any{
				"link":  a.Link,
				"error": err.Error(),
			})
			out = append(out, i)
			continue
		}
		if !published {
			out = append(out, i)
		}
	}
	return out
}

// Dispatch publishes one event per article and marks delivered links in the ledger.
// Failures are joined and returned after every article was attempted.
func (s *Service) Dispatch(ctx context.Context, provider providers.Provider, query domain.QueryState, articles []domain.EnrichedArticle) (Result, error) {
	if s == nil || s.publisher == nil {
		return Result{}, fmt.Errorf("dispatcher is not initialized")
	}

	var (
		res  Result
		errs []error
	)
	for _, a := range articles {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		evt := publishers.NewEvent(provider.ID, provider.Name, query, a)
		evt.AudioURL = s.audioURL(a)

		delivered, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", a.Link, err))
		}
		if delivered == 0 {
			res.Failed++
			metrics.EventsPublished.WithLabelValues("failed").Inc()
			continue
		}

		res.Published++
		metrics.EventsPublished.WithLabelValues("ok").Inc()
		if s.ledger != nil {
			if err := s.ledger.MarkPublished(a.Link); err != nil {
				errs = append(errs, fmt.Errorf("mark %s published: %w", a.Link, err))
			}
		}
	}

	s.log.InfoObj("dispatch completed", "dispatch_result", map[string]any{
		"provider_id": provider.ID,
		"published":   res.Published,
		"failed":      res.Failed,
	})
	return res, errors.Join(errs...)
}

func (s *Service) audioURL(a domain.EnrichedArticle) string {
	if s.audio == nil {
		return ""
	}
	u, err := s.audio.AudioURL(a.DisplaySummary())
	if err != nil {
		if !errors.Is(err, speech.ErrNotConfigured) {
			s.log.DebugObj("audio url unavailable", "speech_error", map[string]any{
				"link":  a.Link,
				"error": err.Error(),
			})
		}
		return ""
	}
	return u
}
