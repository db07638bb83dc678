// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	DB      DBConfig      `mapstructure:"db"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Expense ExpenseConfig `mapstructure:"expense"`
	Summary SummaryConfig `mapstructure:"summary"`
	Notice  NoticeConfig  `mapstructure:"notice"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DataConfig locates the on-disk document layout and the site catalog.
type DataConfig struct {
	// Root is the directory holding legal_docs/ and the catalog CSV.
	Root    string `mapstructure:"root"`
	Catalog string `mapstructure:"catalog"`
}

// DBConfig controls access to the relational store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int32  `mapstructure:"max_open_conns"`
}

// HTTPConfig configures the document fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OpenAIConfig configures the LLM and embedding clients.
type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	VisionModel    string  `mapstructure:"vision_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float32 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// ExpenseConfig governs the expense extractor fan-out.
type ExpenseConfig struct {
	// Workers caps the per-document parallelism; 0 means all cores.
	Workers int `mapstructure:"workers"`
}

// SummaryConfig holds the summarizer thresholds.
type SummaryConfig struct {
	DirectLimitChars int `mapstructure:"direct_limit_chars"`
	ChunkChars       int `mapstructure:"chunk_chars"`
	Clusters         int `mapstructure:"clusters"`
}

// NoticeConfig holds the retrieval window parameters.
type NoticeConfig struct {
	WindowTokens  int `mapstructure:"window_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
	TopK          int `mapstructure:"top_k"`
}

// ServerConfig controls the read-only dashboard API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SETTLEMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.root", "data")
	v.SetDefault("data.catalog", "Securities Settlement Websites.csv")
	v.SetDefault("http.user_agent", "settlement-pipeline/0.1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.temperature", 0)
	v.SetDefault("openai.timeout_seconds", 120)
	v.SetDefault("expense.workers", 0)
	v.SetDefault("summary.direct_limit_chars", 10000)
	v.SetDefault("summary.chunk_chars", 1000)
	v.SetDefault("summary.clusters", 8)
	v.SetDefault("notice.window_tokens", 100)
	v.SetDefault("notice.overlap_tokens", 50)
	v.SetDefault("notice.top_k", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Data.Root == "" {
		return fmt.Errorf("data.root must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Summary.Clusters <= 0 {
		return fmt.Errorf("summary.clusters must be > 0")
	}
	if c.Summary.ChunkChars <= 0 {
		return fmt.Errorf("summary.chunk_chars must be > 0")
	}
	if c.Notice.WindowTokens <= 0 || c.Notice.OverlapTokens < 0 {
		return fmt.Errorf("notice window parameters must be positive")
	}
	if c.Notice.OverlapTokens >= c.Notice.WindowTokens {
		return fmt.Errorf("notice.overlap_tokens must be < notice.window_tokens")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// HTTPTimeout returns the fetcher timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// OpenAITimeout returns the LLM client timeout as a duration.
func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}
