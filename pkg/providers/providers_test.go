package providers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	content := `
providers:
  - id: newsdata
    name: newsdata.io
    type: NewsData
    config:
      user_agent: digest-test
  - id: mirror
    name: Mirror
    type: newsdata
    source_url: https://mirror.example/api/1/news
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(reg.All()))
	}

	p, ok := reg.ByID("newsdata")
	if !ok {
		t.Fatalf("expected provider id newsdata to be loaded")
	}
	if p.SourceURL != DefaultNewsdataBaseURL {
		t.Fatalf("expected default source_url, got %s", p.SourceURL)
	}
	if p.Type != ProviderTypeNewsdata {
		t.Fatalf("type not normalized: %s", p.Type)
	}
	if got := Headers(p)["User-Agent"]; got != "digest-test" {
		t.Fatalf("User-Agent header = %q", got)
	}
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	content := `
providers:
  - id: duplicate
    name: One
    type: newsdata
  - id: duplicate
    name: Two
    type: newsdata
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected duplicate provider error, got nil")
	}
}

func TestLoadRegistryEmptyPathUsesDefault(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	p, ok := reg.ByID(ProviderTypeNewsdata)
	if !ok || p.SourceURL != DefaultNewsdataBaseURL {
		t.Fatalf("unexpected default provider %+v", p)
	}
}

func TestFetcherRegistryResolvesByType(t *testing.T) {
	reg := DefaultFetcherRegistry(&fakeHTTPClient{}, "k")
	f, err := reg.FetcherFor(Provider{ID: "mirror", Type: ProviderTypeNewsdata})
	if err != nil {
		t.Fatalf("FetcherFor: %v", err)
	}
	if f.ID() != ProviderTypeNewsdata {
		t.Fatalf("unexpected fetcher %s", f.ID())
	}
	if _, err := reg.FetcherFor(Provider{ID: "x", Type: "rss"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := reg.FetcherFor(Provider{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSourceFetchPageUsesBoundProvider(t *testing.T) {
	client := &fakeHTTPClient{resp: fakeResponse{statusCode: http.StatusOK, body: []byte(samplePage)}}
	src, err := NewSource(DefaultFetcherRegistry(client, "k"), DefaultProvider())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if src.Provider().ID != ProviderTypeNewsdata {
		t.Fatalf("unexpected provider %q", src.Provider().ID)
	}

	page, err := src.FetchPage(context.Background(), PageRequest{Cursor: "p1"})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(page.Articles) != 2 || page.NextPage != "p2" {
		t.Fatalf("unexpected page %+v", page)
	}
	if client.query.Get("page") != "p1" {
		t.Fatalf("cursor not forwarded, query %v", client.query)
	}

	if _, err := NewSource(DefaultFetcherRegistry(client, "k"), Provider{ID: "x", Type: "rss"}); err == nil {
		t.Fatalf("expected error for unsupported provider type")
	}
}
