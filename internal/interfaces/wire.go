package interfaces

import (
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/mcp"
	"github.com/google/wire"
)

// ProviderSet Interfaces 层总 ProviderSet
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	mcp.ProviderSet,
)
