package tokenizer

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/google/wire"
)

// ProviderSet Token 计数 ProviderSet
var ProviderSet = wire.NewSet(
	NewCounter,
	wire.Bind(new(domainRAG.TokenCounter), new(*Counter)),
)
