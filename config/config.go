package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Embedding service (OpenAI-compatible /v1/embeddings endpoint)
	EmbeddingHost       string        `mapstructure:"EMBEDDING_HOST"`
	EmbeddingAPIKey     string        `mapstructure:"EMBEDDING_API_KEY"`
	EmbeddingModel      string        `mapstructure:"EMBEDDING_MODEL"`
	EmbedRequestTimeout time.Duration `mapstructure:"EMBED_REQUEST_TIMEOUT"`
	EmbedRequestDelay   time.Duration `mapstructure:"EMBED_REQUEST_DELAY_MS"`

	// Retry policy for upstream calls
	MaxRetries        int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`
	BackoffMaxSeconds time.Duration `mapstructure:"BACKOFF_MAX_SECONDS"`

	// Index builder
	ChunkerVersion      string `mapstructure:"CHUNKER_VERSION"`
	ChunkTargetTokens   int    `mapstructure:"CHUNK_TARGET_TOKENS"`
	ChunkOverlapTokens  int    `mapstructure:"CHUNK_OVERLAP_TOKENS"`
	SectionBudgetTokens int    `mapstructure:"SECTION_EXTRACT_BUDGET_TOKENS"`
	MaxCanonDocs        int    `mapstructure:"MAX_CANON_DOCS"`
	BatchSize           int    `mapstructure:"BATCH_SIZE"`
	ReportPath          string `mapstructure:"REPORT_PATH"`

	// Retrieval
	ComputeTopK int `mapstructure:"COMPUTE_TOP_K"`
	PackageTopK int `mapstructure:"PACKAGE_TOP_K"`
	ModelTopK   int `mapstructure:"MODEL_TOP_K"`
	ChunkTopK   int `mapstructure:"CHUNK_TOP_K"`
	CardTopM    int `mapstructure:"CARD_TOP_M"`

	// Server
	WebPort  int    `mapstructure:"WEB_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("EMBEDDING_HOST", "https://api.openai.com")
	viper.SetDefault("EMBEDDING_API_KEY", "")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("EMBED_REQUEST_TIMEOUT", 60)
	viper.SetDefault("EMBED_REQUEST_DELAY_MS", 50)
	viper.SetDefault("MAX_RETRIES", 5)
	viper.SetDefault("RETRY_DELAY_SECONDS", 2)
	viper.SetDefault("BACKOFF_MAX_SECONDS", 60)
	viper.SetDefault("CHUNKER_VERSION", "hf_chunker_v1")
	viper.SetDefault("CHUNK_TARGET_TOKENS", 900)
	viper.SetDefault("CHUNK_OVERLAP_TOKENS", 120)
	viper.SetDefault("SECTION_EXTRACT_BUDGET_TOKENS", 12000)
	viper.SetDefault("MAX_CANON_DOCS", 0)
	viper.SetDefault("BATCH_SIZE", 100)
	viper.SetDefault("REPORT_PATH", "docs/index_report.md")
	viper.SetDefault("COMPUTE_TOP_K", 10)
	viper.SetDefault("PACKAGE_TOP_K", 15)
	viper.SetDefault("MODEL_TOP_K", 5)
	viper.SetDefault("CHUNK_TOP_K", 20)
	viper.SetDefault("CARD_TOP_M", 20)
	viper.SetDefault("WEB_PORT", 8000)
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		logger.Fatal("Unable to decode config into struct", zap.Error(err))
	}

	// Convert numeric settings to proper time.Duration
	config.EmbedRequestTimeout = config.EmbedRequestTimeout * time.Second
	config.EmbedRequestDelay = config.EmbedRequestDelay * time.Millisecond
	config.RetryDelaySeconds = config.RetryDelaySeconds * time.Second
	config.BackoffMaxSeconds = config.BackoffMaxSeconds * time.Second

	return &config
}

// Validate checks settings that must be present before any work starts.
// needsEmbedding is true for modes that call the embedding service.
func (c *Config) Validate(needsEmbedding bool) error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if needsEmbedding && strings.TrimSpace(c.EmbeddingAPIKey) == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required")
	}
	if c.ChunkOverlapTokens >= c.ChunkTargetTokens {
		return fmt.Errorf("CHUNK_OVERLAP_TOKENS (%d) must be smaller than CHUNK_TARGET_TOKENS (%d)",
			c.ChunkOverlapTokens, c.ChunkTargetTokens)
	}
	return nil
}
