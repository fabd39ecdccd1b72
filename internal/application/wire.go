package application

import (
	"github.com/axeltanjung/chatbot-rag/internal/application/rag"
	"github.com/google/wire"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	rag.ProviderSet,
)
