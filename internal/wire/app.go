package wire

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/discovery"
	applog "github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/watcher"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/websocket"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces"
	httpServer "github.com/axeltanjung/chatbot-rag/internal/interfaces/http"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	wsHub      *websocket.Hub
	config     *config.Config
	advertiser *discovery.Advertiser
	logger     *slog.Logger

	// 文件监听相关
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher

	serveErr chan error
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	cfg *config.Config,
	advertiser *discovery.Advertiser,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
) *App {
	return &App{
		HTTPServer:  httpServer,
		MCPServer:   mcpServer,
		wsHub:       wsHub,
		config:      cfg,
		advertiser:  advertiser,
		logger:      applog.NewModuleLogger("app", "main"),
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
		serveErr:    make(chan error, 1),
	}
}

// Start 启动所有服务
// listener 为空时按配置地址监听
func (a *App) Start(listener net.Listener) error {
	a.logger.Info("Starting RAG chatbot application",
		"vector_backend", a.config.Vector.Backend,
		"llm_model", a.config.LLM.Model,
	)

	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", a.HTTPServer.Addr())
		if err != nil {
			return err
		}
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动目录监听（未配置 watch_dir 时不启用）
	if a.fileWatcher != nil && a.fileWatcher.Enabled() {
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("Failed to start file watcher",
				"error", err,
			)
		} else {
			a.logger.Info("File watcher started", "dir", a.config.Ingest.WatchDir)
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Serve(listener); err != nil {
			a.logger.Error("HTTP server stopped with error",
				"error", err,
			)
			a.serveErr <- err
		}
	}()

	// 局域网广播
	if a.config.Discovery.Enabled {
		a.startAdvertiser(listener.Addr())
	}

	a.logger.Info("RAG chatbot application started",
		"addr", listener.Addr().String(),
	)
	return nil
}

// startAdvertiser 广播实际监听端口，失败只记录日志
func (a *App) startAdvertiser(addr net.Addr) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		a.logger.Warn("Cannot determine port for discovery", "error", err)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		a.logger.Warn("Cannot determine port for discovery", "error", err)
		return
	}

	info := discovery.BuildServiceInfo(
		a.config.Discovery.InstanceName,
		port,
		httpServer.APIVersion,
		a.config.Vector.Backend,
	)
	if err := a.advertiser.Start(info); err != nil {
		a.logger.Warn("Failed to start mDNS advertiser",
			"error", err,
		)
	}
}

// Errors HTTP 服务异常退出时收到错误
func (a *App) Errors() <-chan error {
	return a.serveErr
}

// Stop 停止所有服务
// 向量索引与 Embedding 模型由 InitializeAll 返回的 cleanup 释放
func (a *App) Stop() error {
	a.logger.Info("Stopping RAG chatbot application")

	a.advertiser.Stop()

	// 先停止监听，避免关闭过程中继续入库
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
	}
	if a.eventBus != nil {
		a.eventBus.Close()
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	a.wsHub.Stop()

	a.logger.Info("RAG chatbot application stopped")
	return nil
}
