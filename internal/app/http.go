package app

import (
	"encoding/json"
	"net/http"

	"github.com/samvad-hq/samvad-news-digest/internal/metrics"
)

// Handler serves /metrics, /healthz and /articles (the current digest as JSON).
func (d *Digest) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/articles", func(w http.ResponseWriter, _ *http.Request) {
		status := d.orchestrator.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query":      status.Query,
			"state":      status.State,
			"last":       status.Last,
			"pagination": status.Pagination,
			"articles":   d.orchestrator.Articles(),
		})
	})
	return mux
}
