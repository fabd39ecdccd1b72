package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/handler"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/middleware"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/mcp"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/axeltanjung/chatbot-rag/docs" // Swagger docs
)

// APIVersion 对外 API 版本
const APIVersion = "1.0.0"

// RootResponse 根路径响应
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router *gin.Engine
	addr   string
	server *http.Server
	logger *slog.Logger
}

// NewServer 创建 HTTP 服务器
// mcpServer 可为空
func NewServer(
	cfg *config.ServerConfig,
	documentHandler *handler.DocumentHandler,
	chatHandler *handler.ChatHandler,
	eventsHandler *handler.EventsHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	logger := log.NewModuleLogger("http", "server")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	if c, ok := corsConfig(cfg.CORSOrigins); ok {
		router.Use(cors.New(c))
	}
	router.Use(middleware.EnsureUTF8Body())

	// 文档管理
	documents := router.Group("/api/documents")
	{
		documents.POST("/upload", documentHandler.Upload)
		documents.GET("/", documentHandler.List)
		documents.GET("/info", documentHandler.Info)
		documents.DELETE("/", documentHandler.Clear)
		documents.DELETE("/:filename", documentHandler.Delete)
	}

	// 问答
	chat := router.Group("/api/chat")
	{
		chat.POST("/", chatHandler.Chat)
		chat.POST("/search", chatHandler.Search)
		chat.GET("/health", chatHandler.Health)
	}

	// 文档事件
	events := router.Group("/api/events")
	{
		events.GET("/ws", eventsHandler.Stream)
		events.GET("/recent", eventsHandler.Recent)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, RootResponse{
			Message: "RAG Chatbot API",
			Version: APIVersion,
			Docs:    "/swagger/index.html",
		})
	})

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router: router,
		addr:   cfg.Addr(),
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// corsConfig 按配置的来源生成 CORS 配置，未配置来源时不启用
func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c, true
}

// Handler 路由（用于测试）
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Addr 监听地址
func (s *HTTPServer) Addr() string {
	return s.addr
}

// Start 启动服务器，阻塞直到关闭
func (s *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve 在已有 listener 上提供服务，阻塞直到关闭
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.logger.Info("HTTP server starting",
		"addr", listener.Addr().String(),
	)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
