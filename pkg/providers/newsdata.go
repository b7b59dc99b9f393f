package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

// newsdata returns this literal in place of content on free plans.
const newsdataPaidContent = "ONLY AVAILABLE IN PAID PLANS"

// newsdataFetcher queries the newsdata.io /news endpoint.
type newsdataFetcher struct {
	client HTTPClient
	apiKey string
}

// NewNewsdataFetcher builds a fetcher for newsdata.io-compatible providers.
func NewNewsdataFetcher(client HTTPClient, apiKey string) Fetcher {
	if client == nil {
		client = DefaultHTTPClient(0)
	}
	return &newsdataFetcher{client: client, apiKey: strings.TrimSpace(apiKey)}
}

func (f *newsdataFetcher) ID() string {
	return ProviderTypeNewsdata
}

func (f *newsdataFetcher) Fetch(ctx context.Context, cfg Provider, req PageRequest) (Page, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeNewsdata) {
		return Page{}, fmt.Errorf("newsdata fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return Page{}, fmt.Errorf("%w: provider %q source_url is empty", domain.ErrConfiguration, cfg.ID)
	}

	resp, err := f.client.Get(ctx, cfg.SourceURL, f.queryValues(req), Headers(cfg))
	if err != nil {
		return Page{}, fmt.Errorf("%w: fetch %s page: %v", domain.ErrTransport, cfg.ID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return Page{}, fmt.Errorf("%w: %s returned status %d body: %s", domain.ErrTransport, cfg.ID, resp.StatusCode(), httpclient.Snippet(body))
	}

	page, err := parseNewsdataPage(body)
	if err != nil {
		return Page{}, fmt.Errorf("decode %s page: %w", cfg.ID, err)
	}
	return page, nil
}

// queryValues builds the feed query. The cursor is passed back verbatim.
func (f *newsdataFetcher) queryValues(req PageRequest) url.Values {
	q := req.Query.Normalized()
	values := url.Values{}
	values.Set("apikey", f.apiKey)
	if q.Country != "" {
		values.Set("country", q.Country)
	}
	if q.Language != "" {
		values.Set("language", q.Language)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.SearchText != "" {
		values.Set("q", q.SearchText)
	}
	if req.Cursor != "" {
		values.Set("page", req.Cursor)
	}
	return values
}

type newsdataResponse struct {
	Status   string          `json:"status"`
	Results  json.RawMessage `json:"results"`
	NextPage json.RawMessage `json:"nextPage"`
}

type newsdataError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type newsdataArticle struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	SourceID    string   `json:"source_id"`
	PubDate     string   `json:"pubDate"`
	ImageURL    *string  `json:"image_url"`
	Language    string   `json:"language"`
	Creator     []string `json:"creator"`
	Keywords    []string `json:"keywords"`
	Category    []string `json:"category"`
	Country     []string `json:"country"`
}

func parseNewsdataPage(body []byte) (Page, error) {
	var resp newsdataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	if strings.EqualFold(resp.Status, "error") {
		var apiErr newsdataError
		_ = json.Unmarshal(resp.Results, &apiErr)
		return Page{}, fmt.Errorf("%w: newsdata error %s: %s", domain.ErrTransport, apiErr.Code, apiErr.Message)
	}

	var raw []newsdataArticle
	if results := bytes.TrimSpace(resp.Results); len(results) > 0 && !bytes.Equal(results, []byte("null")) {
		if err := json.Unmarshal(results, &raw); err != nil {
			return Page{}, fmt.Errorf("%w: results: %v", domain.ErrParse, err)
		}
	}

	articles := make([]domain.Article, 0, len(raw))
	for _, a := range raw {
		link := strings.TrimSpace(a.Link)
		if link == "" {
			continue
		}
		articles = append(articles, domain.Article{
			Title:       plainText(a.Title),
			Description: plainText(deref(a.Description)),
			Content:     articleContent(deref(a.Content)),
			SourceID:    strings.TrimSpace(a.SourceID),
			Link:        link,
			PubDate:     strings.TrimSpace(a.PubDate),
			ImageURL:    strings.TrimSpace(deref(a.ImageURL)),
			Language:    strings.TrimSpace(a.Language),
			Creator:     a.Creator,
			Keywords:    a.Keywords,
			Category:    a.Category,
			Country:     a.Country,
		})
	}

	return Page{Articles: articles, NextPage: decodeCursor(resp.NextPage)}, nil
}

func articleContent(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), newsdataPaidContent) {
		return ""
	}
	return plainText(raw)
}

// decodeCursor keeps the cursor opaque: strings verbatim, other scalars as their JSON text, null as "".
func decodeCursor(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
