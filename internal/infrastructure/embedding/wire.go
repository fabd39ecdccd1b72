package embedding

import (
	"io"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideProvider 创建 Embedding 实现，本地模型在清理时释放
func ProvideProvider(cfg *config.EmbeddingConfig) (domainRAG.EmbeddingProvider, func(), error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closer, ok := provider.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return provider, cleanup, nil
}

// ProviderSet Embedding ProviderSet
var ProviderSet = wire.NewSet(
	ProvideProvider,
)
