// Package metrics holds the Prometheus collectors for the digest pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every collector below is registered on.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var (
	// FetchCycles counts fetch cycles by kind (reset|continuation) and outcome.
	FetchCycles = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_fetch_cycles_total",
			Help: "Fetch cycles by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// FetchDuration measures feed call + summarization per cycle.
	FetchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_fetch_cycle_duration_seconds",
			Help:    "Duration of fetch cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ArticlesMerged counts articles added to the store; ArticlesDropped counts duplicate links.
	ArticlesMerged = factory.NewCounter(prometheus.CounterOpts{
		Name: "digest_articles_merged_total",
		Help: "Articles added to the enrichment store",
	})
	ArticlesDropped = factory.NewCounter(prometheus.CounterOpts{
		Name: "digest_articles_duplicate_total",
		Help: "Incoming articles dropped because their link was already stored",
	})

	// StoreSize tracks the current number of stored articles.
	StoreSize = factory.NewGauge(prometheus.GaugeOpts{
		Name: "digest_store_articles",
		Help: "Articles currently held by the enrichment store",
	})

	// SummaryFallbacks counts texts summarized locally, by reason.
	SummaryFallbacks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_summary_fallbacks_total",
			Help: "Texts that used the offline summary instead of the service",
		},
		[]string{"reason"},
	)

	// Translations counts translation requests by result (ok|degraded).
	Translations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_translations_total",
			Help: "Translation requests by result",
		},
		[]string{"result"},
	)

	// EventsPublished counts events handed to the publisher fanout by result.
	EventsPublished = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_events_published_total",
			Help: "Enriched article events published downstream",
		},
		[]string{"result"},
	)
)

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordCycle records one finished fetch cycle.
func RecordCycle(reset bool, outcome string) {
	kind := "continuation"
	if reset {
		kind = "reset"
	}
	FetchCycles.WithLabelValues(kind, outcome).Inc()
}

// RecordSummaryFallback records n texts summarized locally for reason.
func RecordSummaryFallback(reason string, n int) {
	if n <= 0 {
		return
	}
	SummaryFallbacks.WithLabelValues(reason).Add(float64(n))
}

// RecordTranslation records one translation request.
func RecordTranslation(ok bool) {
	result := "ok"
	if !ok {
		result = "degraded"
	}
	Translations.WithLabelValues(result).Inc()
}
