package embedding

import (
	"fmt"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
)

// 编译期检查
var (
	_ domainRAG.EmbeddingProvider = (*Client)(nil)
	_ domainRAG.EmbeddingProvider = (*LocalProvider)(nil)
)

// NewProvider 按配置选择 Embedding 实现
func NewProvider(cfg *config.EmbeddingConfig) (domainRAG.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimension,
			time.Duration(cfg.TimeoutSecs)*time.Second), nil
	case "hugot":
		return NewLocalProvider(cfg.Model, cfg.ModelDir)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
