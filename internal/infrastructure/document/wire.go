package document

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/google/wire"
)

// ProviderSet 文档提取 ProviderSet
var ProviderSet = wire.NewSet(
	NewExtractor,
	wire.Bind(new(domainRAG.TextExtractor), new(*Extractor)),
)
