package notification

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/google/wire"
)

// ProviderSet 通知基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventLog,
	NewWebSocketPublisher,
	// 接口绑定：domain.EventPublisher -> infrastructure.WebSocketPublisher
	wire.Bind(
		new(domainRAG.EventPublisher),
		new(*WebSocketPublisher),
	),
)
