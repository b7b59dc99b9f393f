package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/internal/logger"
	"github.com/samvad-hq/samvad-news-digest/internal/metrics"
	"github.com/samvad-hq/samvad-news-digest/internal/resilience/circuitbreaker"
)

const (
	DefaultModel   = openai.GPT3Dot5Turbo
	defaultTimeout = 8 * time.Second
	systemPrompt   = "Summarize each article in 2-3 lines and number them accordingly."
)

// entryMarker finds line-anchored list markers such as "3. " or "3) ".
var entryMarker = regexp.MustCompile(`(?m)^[ \t]*(\d+)[.)]\s+`)

// Options configures a Batch summarizer. An empty APIKey disables the service.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    *circuitbreaker.CircuitBreaker
	Log        logger.Logger
}

// Batch summarizes a list of texts with one chat-completion request, degrading to Fallback.
type Batch struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	log     logger.Logger
}

// NewBatch builds a batch summarizer from opts.
func NewBatch(opts Options) *Batch {
	b := &Batch{
		model:   strings.TrimSpace(opts.Model),
		timeout: opts.Timeout,
		breaker: opts.Breaker,
		log:     logger.Ensure(opts.Log),
	}
	if b.model == "" {
		b.model = DefaultModel
	}
	if b.timeout <= 0 {
		b.timeout = defaultTimeout
	}

	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return b
	}

	cfg := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: b.timeout}
	}
	cfg.HTTPClient = httpClient
	b.client = openai.NewClientWithConfig(cfg)
	return b
}

// Enabled reports whether a service credential is configured.
func (b *Batch) Enabled() bool {
	return b != nil && b.client != nil
}

// SummarizeBatch returns one summary per text, in input order. It never fails:
// without a credential, or when the request fails, every text gets Fallback; an
// entry missing from the reply gets its raw input text.
func (b *Batch) SummarizeBatch(ctx context.Context, texts []string) []string {
	if len(texts) == 0 {
		return []string{}
	}
	if !b.Enabled() {
		metrics.RecordSummaryFallback("no_credential", len(texts))
		return FallbackAll(texts)
	}

	reply, err := circuitbreaker.Do(b.breaker, func() (string, error) {
		return b.complete(ctx, buildPrompt(texts))
	})
	if err != nil {
		b.log.WarnObj("batch summarization failed; using fallback", "summarizer_error", map[string]any{
			"texts": len(texts),
			"kind":  domain.KindOf(err),
			"error": err.Error(),
		})
		metrics.RecordSummaryFallback("service_error", len(texts))
		return FallbackAll(texts)
	}

	out, missing := mapEntries(reply, texts)
	if missing > 0 {
		b.log.WarnObj("summary reply missing entries", "summarizer_parse", map[string]any{
			"texts":   len(texts),
			"missing": missing,
		})
		metrics.RecordSummaryFallback("missing_entry", missing)
	}
	return out
}

func (b *Batch) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domain.ErrParse)
	}
	return resp.Choices[0].Message.Content, nil
}

// buildPrompt numbers texts 1..N so the reply can be mapped back by index.
func buildPrompt(texts []string) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(t)
	}
	return sb.String()
}

// mapEntries maps numbered reply entries onto texts by their number. The first
// entry for a number wins; numbers outside 1..len(texts) are ignored. Missing or
// blank entries fall back to the raw input text.
func mapEntries(reply string, texts []string) ([]string, int) {
	entries := parseEntries(reply, len(texts))
	out := make([]string, len(texts))
	missing := 0
	for i, t := range texts {
		if s, ok := entries[i+1]; ok {
			out[i] = s
			continue
		}
		out[i] = t
		missing++
	}
	return out, missing
}

func parseEntries(reply string, n int) map[int]string {
	entries := make(map[int]string, n)
	locs := entryMarker.FindAllStringSubmatchIndex(reply, -1)
	for k, loc := range locs {
		num, err := strconv.Atoi(reply[loc[2]:loc[3]])
		if err != nil || num < 1 || num > n {
			continue
		}
		end := len(reply)
		if k+1 < len(locs) {
			end = locs[k+1][0]
		}
		text := strings.TrimSpace(reply[loc[1]:end])
		if text == "" {
			continue
		}
		if _, seen := entries[num]; !seen {
			entries[num] = text
		}
	}
	return entries
}
