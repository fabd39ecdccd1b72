package embedding

import (
	"testing"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideProvider(t *testing.T) {
	t.Run("openai client", func(t *testing.T) {
		cfg := config.NewConfig().Embedding
		provider, cleanup, err := ProvideProvider(&cfg)
		require.NoError(t, err)
		defer cleanup()

		_, ok := provider.(*Client)
		assert.True(t, ok)
		info := provider.Info()
		assert.Equal(t, cfg.Model, info.Model)
		assert.Equal(t, cfg.Dimension, info.Dimension)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := config.NewConfig().Embedding
		cfg.Provider = "word2vec"
		_, _, err := ProvideProvider(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown embedding provider")
	})
}
