package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/samvad-news-digest/internal/domain"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	NewsdataAPIKey   string `mapstructure:"newsdata_api_key" json:"-"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key" json:"-"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
	OpenAIModel      string `mapstructure:"openai_model"`
	VoiceRSSAPIKey   string `mapstructure:"voicerss_api_key" json:"-"`
	TranslateBaseURL string `mapstructure:"translate_base_url"`
	SpeechBaseURL    string `mapstructure:"speech_base_url"`

	FeedProvider       string        `mapstructure:"feed_provider"`
	ProvidersFile      string        `mapstructure:"providers_file"`
	PublishersFile     string        `mapstructure:"publishers_file"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	RefreshIntervalSeconds int64         `mapstructure:"refresh_interval"`
	RefreshInterval        time.Duration `mapstructure:"-"`
	MaxPages               int           `mapstructure:"max_pages"`

	QueryCountry  string `mapstructure:"query_country"`
	QueryLanguage string `mapstructure:"query_language"`
	QueryCategory string `mapstructure:"query_category"`
	QuerySearch   string `mapstructure:"query_search"`
	TranslateTo   string `mapstructure:"translate_to"`

	PublishAudioURL bool `mapstructure:"publish_audio_url"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Query returns the initial feed query described by the config.
func (c *Config) Query() domain.QueryState {
	return domain.QueryState{
		Country:    c.QueryCountry,
		Language:   c.QueryLanguage,
		Category:   c.QueryCategory,
		SearchText: c.QuerySearch,
	}.Normalized()
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-news-digest")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("newsdata_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-3.5-turbo")
	v.SetDefault("voicerss_api_key", "")
	v.SetDefault("translate_base_url", "https://api.mymemory.translated.net/get")
	v.SetDefault("speech_base_url", "https://api.voicerss.org/")
	v.SetDefault("feed_provider", "newsdata")
	v.SetDefault("providers_file", "")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("http_timeout_seconds", 8)
	v.SetDefault("refresh_interval", 900) // seconds
	v.SetDefault("max_pages", 3)
	v.SetDefault("query_country", "in")
	v.SetDefault("query_language", "en")
	v.SetDefault("query_category", "top")
	v.SetDefault("query_search", "")
	v.SetDefault("translate_to", "")
	v.SetDefault("publish_audio_url", false)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/published.db")
	v.SetDefault("storage_ttl_seconds", int64((2*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))
	v.SetDefault("metrics_addr", "")
}

func (c *Config) finalize() error {
	c.NewsdataAPIKey = strings.TrimSpace(c.NewsdataAPIKey)
	if c.NewsdataAPIKey == "" {
		return fmt.Errorf("%w: newsdata_api_key is required", domain.ErrConfiguration)
	}
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.VoiceRSSAPIKey = strings.TrimSpace(c.VoiceRSSAPIKey)
	c.TranslateTo = strings.ToLower(strings.TrimSpace(c.TranslateTo))

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: invalid http_timeout_seconds (must be positive seconds)", domain.ErrConfiguration)
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("%w: invalid refresh_interval (must be positive seconds)", domain.ErrConfiguration)
	}
	c.RefreshInterval = time.Duration(c.RefreshIntervalSeconds) * time.Second

	if c.MaxPages < 1 {
		return fmt.Errorf("%w: invalid max_pages (must be at least 1)", domain.ErrConfiguration)
	}

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("%w: invalid storage_ttl_seconds (must be positive seconds)", domain.ErrConfiguration)
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("%w: invalid storage_cleanup_interval_seconds (must be positive seconds)", domain.ErrConfiguration)
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	return nil
}

// Summary returns a loggable view of the config with credentials reduced to presence flags.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"app_name":         c.AppName,
		"app_env":          c.Env,
		"log_level":        c.LogLevel,
		"feed_provider":    c.FeedProvider,
		"providers_file":   c.ProvidersFile,
		"publishers_file":  c.PublishersFile,
		"http_timeout":     c.HTTPTimeout.String(),
		"refresh_interval": c.RefreshInterval.String(),
		"max_pages":        c.MaxPages,
		"query":            c.Query(),
		"translate_to":     c.TranslateTo,
		"publish_audio":    c.PublishAudioURL,
		"storage_type":     c.StorageType,
		"metrics_addr":     c.MetricsAddr,
		"summarizer_key":   c.OpenAIAPIKey != "",
		"speech_key":       c.VoiceRSSAPIKey != "",
	}
}
