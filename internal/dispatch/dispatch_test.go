package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/pkg/providers"
	"github.com/samvad-hq/samvad-news-digest/pkg/publishers"
	"github.com/samvad-hq/samvad-news-digest/pkg/speech"
)

// fakePublisher records events and fails for one link.
type fakePublisher struct {
	mu        sync.Mutex
	events    []publishers.Event
	errOnLink string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.Article.Link == f.errOnLink {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeLedger tracks published links.
type fakeLedger struct {
	mu       sync.Mutex
	seen     map[string]bool
	failLink string
}

func (f *fakeLedger) Published(link string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if link == f.failLink {
		return false, errors.New("lookup failed")
	}
	return f.seen[link], nil
}

func (f *fakeLedger) MarkPublished(link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[link] = true
	return nil
}

type fakeAudio struct{ err error }

func (f fakeAudio) AudioURL(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://tts.example/?src=" + text, nil
}

func enriched(link string) domain.EnrichedArticle {
	return domain.EnrichedArticle{Article: domain.Article{Link: link, Title: link}, Summary: "summary " + link}
}

func TestPendingSkipsPublishedLinks(t *testing.T) {
	ledger := &fakeLedger{seen: map[string]bool{"old": true}, failLink: "flaky"}
	svc := NewService(&fakePublisher{}, ledger, nil, nil)

	got := svc.Pending([]domain.EnrichedArticle{enriched("old"), enriched("new"), enriched("flaky")})
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchPublishesAndMarks(t *testing.T) {
	pub := &fakePublisher{errOnLink: "bad"}
	ledger := &fakeLedger{}
	svc := NewService(pub, ledger, fakeAudio{}, nil)

	provider := providers.Provider{ID: "newsdata", Name: "newsdata.io"}
	query := domain.QueryState{Country: "in", Language: "en", Category: "top"}
	res, err := svc.Dispatch(context.Background(), provider, query, []domain.EnrichedArticle{enriched("good"), enriched("bad")})
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad article, got %v", err)
	}
	if res.Published != 1 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !ledger.seen["good"] || ledger.seen["bad"] {
		t.Fatalf("ledger state wrong: %v", ledger.seen)
	}

	evt := pub.events[0]
	if evt.ProviderID != "newsdata" || evt.Query != query {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.AudioURL != "https://tts.example/?src=summary good" {
		t.Fatalf("AudioURL = %q", evt.AudioURL)
	}
}

func TestDispatchUsesTranslatedSummaryForAudio(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(pub, nil, fakeAudio{}, nil)

	a := enriched("x")
	hi := "सारांश"
	a.TranslatedSummary = &hi
	if _, err := svc.Dispatch(context.Background(), providers.Provider{ID: "p"}, domain.QueryState{}, []domain.EnrichedArticle{a}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if pub.events[0].AudioURL != "https://tts.example/?src=सारांश" {
		t.Fatalf("AudioURL = %q", pub.events[0].AudioURL)
	}
}

func TestDispatchWithoutSpeechKey(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(pub, nil, fakeAudio{err: speech.ErrNotConfigured}, nil)
	if _, err := svc.Dispatch(context.Background(), providers.Provider{ID: "p"}, domain.QueryState{}, []domain.EnrichedArticle{enriched("x")}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if pub.events[0].AudioURL != "" {
		t.Fatalf("expected no audio url, got %q", pub.events[0].AudioURL)
	}
}

func TestDispatchStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := &fakePublisher{}
	svc := NewService(pub, nil, nil, nil)
	_, err := svc.Dispatch(ctx, providers.Provider{ID: "p"}, domain.QueryState{}, []domain.EnrichedArticle{enriched("x")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events after cancellation")
	}
}
