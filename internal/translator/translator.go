// Package translator calls a MyMemory-compatible translation endpoint. Failures
// never surface: the caller always gets text back, translated or not.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/samvad-hq/samvad-news-digest/internal/metrics"
	"github.com/samvad-hq/samvad-news-digest/internal/resilience/circuitbreaker"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://api.mymemory.translated.net/get"
	SourceLanguage = "en"

	defaultTimeout = 8 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL string
	HTTP    httpclient.Client
	Breaker *circuitbreaker.CircuitBreaker
	Log     logger.Logger
}

// Client translates summaries from English into a target language.
type Client struct {
	baseURL string
	http    httpclient.Client
	breaker *circuitbreaker.CircuitBreaker
	log     logger.Logger
}

// New builds a translation client. A nil HTTP client gets the default resty client.
func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimSpace(opts.BaseURL),
		http:    opts.HTTP,
		breaker: opts.Breaker,
		log:     logger.Ensure(opts.Log),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(defaultTimeout)
	}
	return c
}

// Translate returns text translated into target, or text unchanged when the
// request cannot be completed. Nothing is memoized.
func (c *Client) Translate(ctx context.Context, text, target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	if c == nil || strings.TrimSpace(text) == "" || target == "" {
		return text
	}

	out, err := circuitbreaker.Do(c.breaker, func() (string, error) {
		return c.translate(ctx, text, target)
	})
	if err != nil {
		c.log.WarnObj("translation failed; keeping original text", "translator_error", map[string]any{
			"target": target,
			"kind":   domain.KindOf(err),
			"error":  err.Error(),
		})
		metrics.RecordTranslation(false)
		return text
	}
	metrics.RecordTranslation(true)
	return out
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.RawMessage `json:"responseStatus"`
	ResponseDetails string          `json:"responseDetails"`
}

func (c *Client) translate(ctx context.Context, text, target string) (string, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", SourceLanguage+"|"+target)

	resp, err := c.http.Get(ctx, c.baseURL, query, map[string]string{"Accept": "application/json"})
	if err != nil {
		return "", fmt.Errorf("%w: translate request: %v", domain.ErrTransport, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return "", fmt.Errorf("%w: translate returned status %d body: %s", domain.ErrTransport, code, httpclient.Snippet(resp.Body()))
	}

	var body myMemoryResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: decode translation: %v", domain.ErrParse, err)
	}
	if status := responseStatus(body.ResponseStatus); status != "" && status != "200" {
		return "", fmt.Errorf("%w: translation status %s: %s", domain.ErrTransport, status, body.ResponseDetails)
	}
	translated := strings.TrimSpace(body.ResponseData.TranslatedText)
	if translated == "" {
		return "", fmt.Errorf("%w: empty translation", domain.ErrParse)
	}
	return translated, nil
}

// responseStatus normalizes the status, which MyMemory sends as a number or a string.
func responseStatus(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
