package providers

import (
	"context"
	"fmt"
)

// Source binds one provider to the fetcher that serves it.
type Source struct {
	provider Provider
	fetcher  Fetcher
}

// NewSource resolves the fetcher for provider from reg.
func NewSource(reg FetcherRegistry, provider Provider) (*Source, error) {
	if reg == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	f, err := reg.FetcherFor(provider)
	if err != nil {
		return nil, err
	}
	return &Source{provider: provider, fetcher: f}, nil
}

// Provider returns the bound provider config.
func (s *Source) Provider() Provider {
	return s.provider
}

// FetchPage fetches one page of req from the bound provider.
func (s *Source) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	return s.fetcher.Fetch(ctx, s.provider, req)
}
