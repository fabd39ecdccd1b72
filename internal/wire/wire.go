//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/axeltanjung/chatbot-rag/internal/application"
	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/watcher"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces"
	"github.com/google/wire"
)

// InitializeAll 初始化所有服务（HTTP + MCP + 目录监听）
func InitializeAll() (*App, func(), error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		// 接口绑定：watcher.DocumentIngestor -> application.IngestService
		wire.Bind(
			new(watcher.DocumentIngestor),
			new(*appRAG.IngestService),
		),
		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil, nil
}
