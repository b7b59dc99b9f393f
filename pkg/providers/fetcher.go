package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByType map[string]Fetcher
	mu             sync.RWMutex
}

// NewTypeFetcherRegistry builds a registry with type-based fetchers and optional provider-specific fetchers.
func NewTypeFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByType: make(map[string]Fetcher),
	}

	for _, f := range fetchers {
		if f != nil {
			reg.register(reg.fetchersByID, f.ID(), f)
		}
	}
	for typ, f := range typeFetchers {
		reg.register(reg.fetchersByType, typ, f)
	}

	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	key = strings.ToLower(strings.TrimSpace(key))
	if f == nil || key == "" {
		return
	}

	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given provider based on its id or type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchersByID[strings.ToLower(strings.TrimSpace(cfg.ID))]; ok {
		return f, nil
	}
	if typeKey := strings.ToLower(strings.TrimSpace(cfg.Type)); typeKey != "" {
		if f, ok := r.fetchersByType[typeKey]; ok {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns a resty-backed client for provider fetchers.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return httpclient.NewRestyClient(timeout)
}

// DefaultFetcherRegistry wires up known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient, apiKey string) FetcherRegistry {
	typeFetchers := map[string]Fetcher{
		ProviderTypeNewsdata: NewNewsdataFetcher(client, apiKey),
	}
	return NewTypeFetcherRegistry(typeFetchers)
}
