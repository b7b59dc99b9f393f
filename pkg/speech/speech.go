// Package speech builds and fetches VoiceRSS-compatible text-to-speech audio.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/samvad-hq/samvad-news-digest/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://api.voicerss.org/"
	DefaultVoice   = "en-us"

	defaultTimeout = 8 * time.Second
)

// ErrNotConfigured is returned when no speech API key is set.
var ErrNotConfigured = errors.New("speech: api key not configured")

// VoiceRSS reports failures as a 200 response whose body starts with this prefix.
var errorPrefix = []byte("ERROR")

type Options struct {
	BaseURL string
	APIKey  string
	Voice   string
	HTTP    httpclient.Client
}

// Client turns summary text into playable audio.
type Client struct {
	baseURL string
	apiKey  string
	voice   string
	http    httpclient.Client
}

func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimSpace(opts.BaseURL),
		apiKey:  strings.TrimSpace(opts.APIKey),
		voice:   strings.TrimSpace(opts.Voice),
		http:    opts.HTTP,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.voice == "" {
		c.voice = DefaultVoice
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(defaultTimeout)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) query(text string) (url.Values, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("speech: empty text")
	}
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("hl", c.voice)
	q.Set("src", text)
	return q, nil
}

// AudioURL returns a URL that plays text when fetched.
func (c *Client) AudioURL(text string) (string, error) {
	q, err := c.query(text)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse speech base url: %v", domain.ErrConfiguration, err)
	}
	existing := u.Query()
	for k, vals := range q {
		existing[k] = vals
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}

// Fetch downloads the audio for text.
func (c *Client) Fetch(ctx context.Context, text string) ([]byte, error) {
	q, err := c.query(text)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Get(ctx, c.baseURL, q, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: speech request: %v", domain.ErrTransport, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: speech returned status %d body: %s", domain.ErrTransport, resp.StatusCode(), httpclient.Snippet(body))
	}
	if bytes.HasPrefix(bytes.TrimSpace(body), errorPrefix) {
		return nil, fmt.Errorf("%w: speech service: %s", domain.ErrTransport, httpclient.Snippet(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: speech returned no audio", domain.ErrParse)
	}
	return body, nil
}
