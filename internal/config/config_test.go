package config

import (
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/spf13/viper"
)

func TestLoadRequiresFeedKey(t *testing.T) {
	_, err := load(viper.New())
	if err == nil {
		t.Fatalf("expected error without newsdata_api_key")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	v.Set("newsdata_api_key", " key ")

	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NewsdataAPIKey != "key" {
		t.Fatalf("key not trimmed: %q", cfg.NewsdataAPIKey)
	}
	if cfg.HTTPTimeout != 8*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.RefreshInterval != 900*time.Second {
		t.Fatalf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	q := cfg.Query()
	if q.Country != "in" || q.Language != "en" || q.Category != "top" || q.SearchText != "" {
		t.Fatalf("unexpected default query %+v", q)
	}
	if cfg.OpenAIAPIKey != "" || cfg.VoiceRSSAPIKey != "" {
		t.Fatalf("optional keys should default to empty")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NEWSDATA_API_KEY", "env-key")
	t.Setenv("QUERY_CATEGORY", "Technology")
	t.Setenv("TRANSLATE_TO", "HI")
	t.Setenv("PUBLISH_AUDIO_URL", "true")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NewsdataAPIKey != "env-key" {
		t.Fatalf("NewsdataAPIKey = %q", cfg.NewsdataAPIKey)
	}
	if cfg.Query().Category != "technology" {
		t.Fatalf("category = %q", cfg.Query().Category)
	}
	if cfg.TranslateTo != "hi" {
		t.Fatalf("TranslateTo = %q", cfg.TranslateTo)
	}
	if !cfg.PublishAudioURL {
		t.Fatalf("PublishAudioURL should be read from env")
	}
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	v := viper.New()
	v.Set("newsdata_api_key", "k")
	v.Set("http_timeout_seconds", 0)
	if _, err := load(v); err == nil {
		t.Fatalf("expected error for zero timeout")
	}

	v = viper.New()
	v.Set("newsdata_api_key", "k")
	v.Set("max_pages", 0)
	if _, err := load(v); err == nil {
		t.Fatalf("expected error for zero max_pages")
	}
}

func TestSummaryHidesKeys(t *testing.T) {
	v := viper.New()
	v.Set("newsdata_api_key", "secret")
	v.Set("openai_api_key", "sk-secret")
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := cfg.Summary()
	for k, val := range s {
		if str, ok := val.(string); ok && (str == "secret" || str == "sk-secret") {
			t.Fatalf("summary leaks credential under %q", k)
		}
	}
	if s["summarizer_key"] != true {
		t.Fatalf("expected summarizer_key presence flag")
	}
}
