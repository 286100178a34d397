package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabaseURL:        "postgres://localhost/rag",
			EmbeddingAPIKey:    "sk-test",
			ChunkTargetTokens:  900,
			ChunkOverlapTokens: 120,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})

	t.Run("missing_database_url", func(t *testing.T) {
		cfg := base()
		cfg.DatabaseURL = "  "
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("api_key_only_required_for_embedding_modes", func(t *testing.T) {
		cfg := base()
		cfg.EmbeddingAPIKey = ""
		assert.NoError(t, cfg.Validate(false))
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("overlap_must_be_smaller_than_target", func(t *testing.T) {
		cfg := base()
		cfg.ChunkOverlapTokens = 900
		assert.Error(t, cfg.Validate(false))
	})
}
