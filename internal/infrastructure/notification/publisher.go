package notification

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/websocket"
)

// WebSocketPublisher 记录文档事件并推送给 WebSocket 订阅者
type WebSocketPublisher struct {
	hub *websocket.Hub
	log *EventLog
}

// NewWebSocketPublisher 创建推送器
func NewWebSocketPublisher(hub *websocket.Hub, log *EventLog) *WebSocketPublisher {
	return &WebSocketPublisher{hub: hub, log: log}
}

// Publish 实现 domainRAG.EventPublisher 接口
func (p *WebSocketPublisher) Publish(event *domainRAG.DocumentEvent) error {
	if p.log != nil {
		p.log.Append(event)
	}
	return p.hub.Broadcast(websocket.TopicDocuments, event)
}

// 编译时检查接口实现
var _ domainRAG.EventPublisher = (*WebSocketPublisher)(nil)
