package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/samvad-news-digest/internal/config"
	"github.com/samvad-hq/samvad-news-digest/internal/dispatch"
	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/samvad-hq/samvad-news-digest/internal/pipeline"
	"github.com/samvad-hq/samvad-news-digest/internal/resilience/circuitbreaker"
	"github.com/samvad-hq/samvad-news-digest/internal/storage"
	"github.com/samvad-hq/samvad-news-digest/internal/summarizer"
	"github.com/samvad-hq/samvad-news-digest/internal/translator"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
	"github.com/samvad-hq/samvad-news-digest/pkg/providers"
	"github.com/samvad-hq/samvad-news-digest/pkg/publishers"
	"github.com/samvad-hq/samvad-news-digest/pkg/speech"
)

const (
	translateConcurrency = 4
	shutdownTimeout      = 5 * time.Second
)

// Digest is the runtime: it refreshes the digest on a fixed interval, pages
// through the feed, translates new articles when configured and publishes them.
type Digest struct {
	cfg          *config.Config
	provider     providers.Provider
	orchestrator *pipeline.Orchestrator
	dispatcher   *dispatch.Service
	fanout       *publishers.Fanout
	ledger       storage.Ledger
	log          logger.Logger
}

// NewDigest builds the runtime from config.
func NewDigest(ctx context.Context, cfg *config.Config, log logger.Logger) (*Digest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	provider, ok := providerReg.ByID(cfg.FeedProvider)
	if !ok {
		return nil, fmt.Errorf("%w: feed provider %q not found in registry", domain.ErrConfiguration, cfg.FeedProvider)
	}

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	source, err := providers.NewSource(providers.DefaultFetcherRegistry(httpClient, cfg.NewsdataAPIKey), provider)
	if err != nil {
		return nil, fmt.Errorf("resolve feed source: %w", err)
	}
	log.InfoObj("feed provider selected", "provider_meta", map[string]any{
		"id":         provider.ID,
		"type":       provider.Type,
		"source_url": provider.SourceURL,
	})

	batch := summarizer.NewBatch(summarizer.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.HTTPTimeout,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Breaker:    circuitbreaker.New(circuitbreaker.SummarizerConfig(), log),
		Log:        log,
	})
	if !batch.Enabled() {
		log.WarnObj("summarizer credential missing; using offline summaries", "summarizer", map[string]any{
			"fallback_sentences": summarizer.FallbackSentences,
		})
	}

	tr := translator.New(translator.Options{
		BaseURL: cfg.TranslateBaseURL,
		HTTP:    httpClient,
		Breaker: circuitbreaker.New(circuitbreaker.TranslatorConfig(), log),
		Log:     log,
	})

	orchestrator, err := pipeline.New(pipeline.Deps{
		Feed:       source,
		Summarizer: batch,
		Translator: tr,
		Log:        log,
	}, cfg.Query())
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	ledger, err := storage.Open(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("publish ledger initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var audio dispatch.AudioLinker
	if cfg.PublishAudioURL {
		sp := speech.New(speech.Options{BaseURL: cfg.SpeechBaseURL, APIKey: cfg.VoiceRSSAPIKey, HTTP: httpClient})
		if sp.Enabled() {
			audio = sp
		} else {
			log.WarnObj("publish_audio_url set without a speech credential; events carry no audio", "speech", nil)
		}
	}

	return &Digest{
		cfg:          cfg,
		provider:     provider,
		orchestrator: orchestrator,
		dispatcher:   dispatch.NewService(fanout, ledger, audio, log),
		fanout:       fanout,
		ledger:       ledger,
		log:          log,
	}, nil
}

// buildFanout loads enabled publishers. A missing publishers file leaves the digest without sinks.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WarnObj("publishers file not found; articles will not be published", "publishers_file", cfg.PublishersFile)
			return publishers.NewFanout(nil), nil
		}
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Orchestrator exposes the pipeline for callers driving it directly.
func (d *Digest) Orchestrator() *pipeline.Orchestrator {
	return d.orchestrator
}

// Run refreshes immediately and then every refresh interval until ctx is
// cancelled. When metrics_addr is set, the HTTP endpoints are served alongside.
func (d *Digest) Run(ctx context.Context) error {
	if d == nil || d.orchestrator == nil {
		return fmt.Errorf("digest is not initialized")
	}
	defer d.close()

	g, ctx := errgroup.WithContext(ctx)
	if addr := d.cfg.MetricsAddr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			d.log.InfoObj("http endpoints listening", "metrics_addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error { return d.loop(ctx) })
	return g.Wait()
}

func (d *Digest) loop(ctx context.Context) error {
	d.log.InfoObj("digest loop starting", "digest_state", map[string]any{
		"provider_id":      d.provider.ID,
		"publishers_count": d.fanout.Size(),
		"refresh_interval": d.cfg.RefreshInterval.String(),
		"max_pages":        d.cfg.MaxPages,
		"query":            d.orchestrator.Query(),
	})

	if err := d.RunOnce(ctx); err != nil {
		d.log.ErrorObj("initial refresh failed", "error", err.Error())
	}

	ticker := time.NewTicker(d.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.InfoObj("digest loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.log.ErrorObj("scheduled refresh failed", "error", err.Error())
			}
		}
	}
}

// RunOnce performs one refresh: a reset cycle, continuation cycles up to
// max_pages, translation of unpublished articles and publishing.
func (d *Digest) RunOnce(ctx context.Context) error {
	start := time.Now()
	if _, err := d.orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	pages := 1
	for pages < d.cfg.MaxPages {
		if _, err := d.orchestrator.LoadMore(ctx); err != nil {
			if !errors.Is(err, pipeline.ErrNoMorePages) {
				d.log.WarnObj("continuation stopped", "refresh_error", map[string]any{
					"page":  pages + 1,
					"kind":  domain.KindOf(err),
					"error": err.Error(),
				})
			}
			break
		}
		pages++
	}

	articles := d.orchestrator.Articles()
	pending := d.dispatcher.Pending(articles)
	if d.cfg.TranslateTo != "" {
		articles = d.translate(ctx, articles, pending)
	}

	batch := make([]domain.EnrichedArticle, 0, len(pending))
	for _, i := range pending {
		batch = append(batch, articles[i])
	}

	var publishErr error
	if d.fanout.Size() > 0 && len(batch) > 0 {
		_, publishErr = d.dispatcher.Dispatch(ctx, d.provider, d.orchestrator.Query(), batch)
	}

	d.log.InfoObj("refresh completed", "refresh_meta", map[string]any{
		"pages":      pages,
		"articles":   len(articles),
		"new":        len(batch),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return publishErr
}

// translate requests translations for the pending indexes concurrently and
// returns the articles with the results applied.
func (d *Digest) translate(ctx context.Context, articles []domain.EnrichedArticle, pending []int) []domain.EnrichedArticle {
	out := make([]domain.EnrichedArticle, len(articles))
	copy(out, articles)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(translateConcurrency)
	for _, i := range pending {
		g.Go(func() error {
			updated, err := d.orchestrator.RequestTranslation(gctx, i, d.cfg.TranslateTo)
			if err != nil {
				d.log.WarnObj("translation request dropped", "translation", map[string]any{
					"index": i,
					"link":  articles[i].Link,
					"error": err.Error(),
				})
				return nil
			}
			out[i] = updated
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (d *Digest) close() {
	if err := d.fanout.Close(); err != nil {
		d.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if d.ledger != nil {
		if err := d.ledger.Close(); err != nil {
			d.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
