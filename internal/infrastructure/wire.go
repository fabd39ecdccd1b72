package infrastructure

import (
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/discovery"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/document"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/embedding"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/llm"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/notification"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/tokenizer"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/vector"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/watcher"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/websocket"
	"github.com/google/wire"
)

// ProviderSet Infrastructure 层总 ProviderSet
// SQLite 由 vector 工厂按后端按需打开
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	vector.ProviderSet,
	embedding.ProviderSet,
	llm.ProviderSet,
	document.ProviderSet,
	tokenizer.ProviderSet,
	websocket.ProviderSet,
	notification.ProviderSet,
	watcher.ProviderSet,
	discovery.ProviderSet,
)
