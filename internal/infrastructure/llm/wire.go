package llm

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/google/wire"
)

// ProviderSet LLM ProviderSet
var ProviderSet = wire.NewSet(
	NewClientFromConfig,
	wire.Bind(new(domainRAG.Generator), new(*Client)),
)
