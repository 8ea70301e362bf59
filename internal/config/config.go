package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobharvest/internal/source"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "JOBHARVEST_CONFIG"

// DefaultPath is used when neither the flag nor the env var is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for a jobharvest run.
type Config struct {
	Database     string
	SearchTerms  []string
	Sources      []SourceConfig
	Crawl        CrawlConfig
	AI           AIConfig
	Dedup        DedupConfig
	Notification NotificationConfig
}

// SourceConfig enables one listing site and optionally overrides its base
// address and locale.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Locale  string `yaml:"locale"`
}

// EnabledSources returns the sources switched on, in file order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// CrawlConfig controls fetching and pagination.
type CrawlConfig struct {
	Timeout           time.Duration // per-request timeout
	MaxPages          int
	RequestsPerSecond float64 // per host
	Burst             int
	MaxRetries        int // 0 means single-shot
	RetryBaseDelay    time.Duration
	UserAgent         string
	Concurrency       int // targets crawled at once, 0 means all
}

// AIConfig controls the optional enrichment stage.
type AIConfig struct {
	Enabled   bool
	Provider  string // "gemini" or "openai"
	BaseURL   string
	Model     string
	APIKey    string        // expanded from env var by Load
	Timeout   time.Duration // per-request timeout
	MinDelay  time.Duration // global gap between model calls
	BatchSize int
	Workers   int
}

// DedupConfig controls near-duplicate detection.
type DedupConfig struct {
	Threshold       float64
	Languages       []string
	Linkage         string // "seed" or "chain"
	KeepUnsupported bool
}

// NotificationConfig controls which reporter is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultDatabase       = "jobharvest.db"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultUserAgent      = "Mozilla/5.0 (compatible; jobharvest/1.0)"
	defaultThreshold      = 0.92
	defaultMaxPages       = 50
	defaultBatchSize      = 100
	defaultRetryBaseDelay = 2 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Database     string             `yaml:"database"`
	SearchTerms  []string           `yaml:"search_terms"`
	Sources      []SourceConfig     `yaml:"sources"`
	Crawl        rawCrawlConfig     `yaml:"crawl"`
	AI           rawAIConfig        `yaml:"ai"`
	Dedup        rawDedupConfig     `yaml:"dedup"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawCrawlConfig struct {
	Timeout           string   `yaml:"timeout"`
	MaxPages          int      `yaml:"max_pages"`
	RequestsPerSecond *float64 `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	MaxRetries        int      `yaml:"max_retries"`
	RetryBaseDelay    string   `yaml:"retry_base_delay"`
	UserAgent         string   `yaml:"user_agent"`
	Concurrency       int      `yaml:"concurrency"`
}

type rawAIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Timeout   string `yaml:"timeout"`
	MinDelay  string `yaml:"min_delay"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
}

type rawDedupConfig struct {
	Threshold       *float64 `yaml:"threshold"`
	Languages       []string `yaml:"languages"`
	Linkage         string   `yaml:"linkage"`
	KeepUnsupported bool     `yaml:"keep_unsupported"`
}

// ResolvePath picks the config file: the flag value, then $JOBHARVEST_CONFIG,
// then ./config.yaml.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	crawl, err := convertCrawl(raw.Crawl)
	if err != nil {
		return nil, err
	}
	aiCfg, err := convertAI(raw.AI)
	if err != nil {
		return nil, err
	}

	database := raw.Database
	if database == "" {
		database = defaultDatabase
	}

	sources := raw.Sources
	if len(sources) == 0 {
		for _, name := range source.Names() {
			sources = append(sources, SourceConfig{Name: name, Enabled: true})
		}
	}

	cfg := &Config{
		Database:     database,
		SearchTerms:  raw.SearchTerms,
		Sources:      sources,
		Crawl:        crawl,
		AI:           aiCfg,
		Dedup:        convertDedup(raw.Dedup),
		Notification: raw.Notification,
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func convertCrawl(raw rawCrawlConfig) (CrawlConfig, error) {
	timeout, err := parseDuration("crawl.timeout", raw.Timeout, 10*time.Second)
	if err != nil {
		return CrawlConfig{}, err
	}
	baseDelay, err := parseDuration("crawl.retry_base_delay", raw.RetryBaseDelay, defaultRetryBaseDelay)
	if err != nil {
		return CrawlConfig{}, err
	}

	cfg := CrawlConfig{
		Timeout:           timeout,
		MaxPages:          raw.MaxPages,
		RequestsPerSecond: 1,
		Burst:             raw.Burst,
		MaxRetries:        raw.MaxRetries,
		RetryBaseDelay:    baseDelay,
		UserAgent:         raw.UserAgent,
		Concurrency:       raw.Concurrency,
	}
	if raw.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *raw.RequestsPerSecond
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return cfg, nil
}

func convertAI(raw rawAIConfig) (AIConfig, error) {
	timeout, err := parseDuration("ai.timeout", raw.Timeout, 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}
	minDelay, err := parseDuration("ai.min_delay", raw.MinDelay, 3*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Enabled:   raw.Enabled,
		Provider:  strings.ToLower(raw.Provider),
		BaseURL:   raw.BaseURL,
		Model:     raw.Model,
		APIKey:    raw.APIKey,
		Timeout:   timeout,
		MinDelay:  minDelay,
		BatchSize: raw.BatchSize,
		Workers:   raw.Workers,
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOpenAIBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	case ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func convertDedup(raw rawDedupConfig) DedupConfig {
	cfg := DedupConfig{
		Threshold:       defaultThreshold,
		Languages:       raw.Languages,
		Linkage:         strings.ToLower(raw.Linkage),
		KeepUnsupported: raw.KeepUnsupported,
	}
	if raw.Threshold != nil {
		cfg.Threshold = *raw.Threshold
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en", "fr"}
	}
	if cfg.Linkage == "" {
		cfg.Linkage = "seed"
	}
	return cfg
}

func validate(cfg *Config) error {
	if len(cfg.SearchTerms) == 0 {
		return fmt.Errorf("at least one search term is required")
	}
	for i, term := range cfg.SearchTerms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("search_terms[%d] is empty", i)
		}
	}

	known := source.Names()
	for i, s := range cfg.Sources {
		if !slices.Contains(known, strings.ToLower(s.Name)) {
			return fmt.Errorf("sources[%d]: unknown source %q (known: %s)", i, s.Name, strings.Join(known, ", "))
		}
	}
	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Crawl.Timeout <= 0 {
		return fmt.Errorf("crawl.timeout must be positive, got %v", cfg.Crawl.Timeout)
	}
	if cfg.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must not be negative, got %d", cfg.Crawl.MaxRetries)
	}
	if cfg.Crawl.Concurrency < 0 {
		return fmt.Errorf("crawl.concurrency must not be negative, got %d", cfg.Crawl.Concurrency)
	}

	if cfg.Dedup.Threshold <= 0 || cfg.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup.threshold must be in (0, 1], got %v", cfg.Dedup.Threshold)
	}
	if cfg.Dedup.Linkage != "seed" && cfg.Dedup.Linkage != "chain" {
		return fmt.Errorf("dedup.linkage must be \"seed\" or \"chain\", got %q", cfg.Dedup.Linkage)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.Provider != ProviderGemini && cfg.AI.Provider != ProviderOpenAI {
			return fmt.Errorf("ai.provider must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, cfg.AI.Provider)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.MinDelay < 0 {
			return fmt.Errorf("ai.min_delay must not be negative, got %v", cfg.AI.MinDelay)
		}
		if cfg.AI.BatchSize < 0 || cfg.AI.Workers < 0 {
			return fmt.Errorf("ai.batch_size and ai.workers must not be negative")
		}
	}

	return nil
}
