package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Client interface.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte         { return f.body }
func (f fakeResponse) StatusCode() int      { return f.statusCode }
func (f fakeResponse) Header(string) string { return "" }

// fakeHTTPClient returns a canned response and records the query it saw.
type fakeHTTPClient struct {
	resp  fakeResponse
	err   error
	query url.Values
	calls int
}

func (f *fakeHTTPClient) Get(_ context.Context, _ string, query url.Values, _ map[string]string) (httpclient.Response, error) {
	f.calls++
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

const samplePage = `{
  "status": "success",
  "totalResults": 3,
  "results": [
    {"title": "One", "link": "https://ex.com/1", "description": "<p>First <b>story</b>. More.</p>", "content": "ONLY AVAILABLE IN PAID PLANS", "source_id": "ex", "pubDate": "2025-01-01 10:00:00", "creator": null, "keywords": ["a"]},
    {"title": "Two", "link": "https://ex.com/2", "description": null, "content": "Body text", "source_id": "ex"},
    {"title": "No link", "link": "  "}
  ],
  "nextPage": "p2"
}`

func TestNewsdataFetchBuildsQueryAndParses(t *testing.T) {
	client := &fakeHTTPClient{resp: fakeResponse{body: []byte(samplePage), statusCode: http.StatusOK}}
	fetcher := NewNewsdataFetcher(client, "key")

	page, err := fetcher.Fetch(context.Background(), DefaultProvider(), PageRequest{
		Query:  domain.QueryState{Country: "in", Language: "en", Category: "Technology", SearchText: "climate change"},
		Cursor: "abc==",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	wantQuery := url.Values{
		"apikey":   {"key"},
		"country":  {"in"},
		"language": {"en"},
		"category": {"technology"},
		"q":        {"climate change"},
		"page":     {"abc=="},
	}
	if diff := cmp.Diff(wantQuery, client.query); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	if page.NextPage != "p2" {
		t.Fatalf("NextPage = %q", page.NextPage)
	}
	if len(page.Articles) != 2 {
		t.Fatalf("expected 2 articles (linkless dropped), got %d", len(page.Articles))
	}
	first := page.Articles[0]
	if first.Description != "First story. More." {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Content != "" {
		t.Errorf("paid-plan placeholder should be dropped, got %q", first.Content)
	}
	if page.Articles[1].Description != "" || page.Articles[1].Content != "Body text" {
		t.Errorf("unexpected second article %+v", page.Articles[1])
	}
}

func TestNewsdataFetchOmitsEmptyOptionalParams(t *testing.T) {
	client := &fakeHTTPClient{resp: fakeResponse{body: []byte(`{"status":"success","results":[]}`), statusCode: 200}}
	fetcher := NewNewsdataFetcher(client, "key")

	page, err := fetcher.Fetch(context.Background(), DefaultProvider(), PageRequest{
		Query: domain.QueryState{Country: "in", Language: "en", Category: "top"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, ok := client.query["q"]; ok {
		t.Errorf("q should be omitted for empty search")
	}
	if _, ok := client.query["page"]; ok {
		t.Errorf("page should be omitted without cursor")
	}
	if page.NextPage != "" || len(page.Articles) != 0 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestNewsdataNullResultsIsEmpty(t *testing.T) {
	page, err := parseNewsdataPage([]byte(`{"status":"success","results":null,"nextPage":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(page.Articles) != 0 || page.NextPage != "" {
		t.Fatalf("unexpected page %+v", page)
	}

	page, err = parseNewsdataPage([]byte(`{"status":"success"}`))
	if err != nil || len(page.Articles) != 0 {
		t.Fatalf("absent results should be empty, got %+v %v", page, err)
	}
}

func TestNewsdataNumericCursorStaysOpaque(t *testing.T) {
	page, err := parseNewsdataPage([]byte(`{"status":"success","results":[],"nextPage":1700000000123}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.NextPage != "1700000000123" {
		t.Fatalf("NextPage = %q", page.NextPage)
	}
}

func TestNewsdataErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		resp fakeResponse
		err  error
		want error
	}{
		{name: "transport", err: errors.New("dial tcp: refused"), want: domain.ErrTransport},
		{name: "status", resp: fakeResponse{body: []byte("nope"), statusCode: http.StatusUnauthorized}, want: domain.ErrTransport},
		{name: "api error", resp: fakeResponse{body: []byte(`{"status":"error","results":{"message":"bad key","code":"Unauthorized"}}`), statusCode: 200}, want: domain.ErrTransport},
		{name: "malformed", resp: fakeResponse{body: []byte(`<html>`), statusCode: 200}, want: domain.ErrParse},
		{name: "bad results shape", resp: fakeResponse{body: []byte(`{"status":"success","results":{"x":1}}`), statusCode: 200}, want: domain.ErrParse},
	}
	for _, tc := range cases {
		client := &fakeHTTPClient{resp: tc.resp, err: tc.err}
		_, err := NewNewsdataFetcher(client, "k").Fetch(context.Background(), DefaultProvider(), PageRequest{})
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNewsdataRejectsOtherProviderTypes(t *testing.T) {
	client := &fakeHTTPClient{}
	_, err := NewNewsdataFetcher(client, "k").Fetch(context.Background(), Provider{ID: "x", Type: "rss", SourceURL: "https://x"}, PageRequest{})
	if err == nil || client.calls != 0 {
		t.Fatalf("expected rejection without HTTP call, err=%v calls=%d", err, client.calls)
	}
}

func TestNewsdataAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "IPL final" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	provider := DefaultProvider()
	provider.SourceURL = srv.URL
	fetcher := NewNewsdataFetcher(httpclient.NewRestyClient(2*time.Second), "k")
	page, err := fetcher.Fetch(context.Background(), provider, PageRequest{Query: domain.QueryState{SearchText: "IPL final"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(page.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(page.Articles))
	}
}

func TestPlainText(t *testing.T) {
	if got := plainText("  a   b\n c "); got != "a b c" {
		t.Fatalf("plainText = %q", got)
	}
	if got := plainText(`<div>Tom &amp; Jerry<script>x()</script></div>`); got != "Tom & Jerry" {
		t.Fatalf("plainText = %q", got)
	}
}
