package mcp

import (
	"context"
	"log/slog"
	"net/http"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerVersion MCP 服务版本
const ServerVersion = "1.0.0"

// Answerer 问答与检索
type Answerer interface {
	Answer(ctx context.Context, req *appRAG.AnswerRequest) (*domainRAG.ChatAnswer, error)
	Search(ctx context.Context, query string, topK int) ([]*domainRAG.Source, error)
}

// DocumentLister 文档列表
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]*domainRAG.DocumentInfo, error)
}

// MCPServer MCP 服务器
type MCPServer struct {
	server    *mcp.Server
	handler   http.Handler
	answerer  Answerer
	documents DocumentLister
	logger    *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(answerer Answerer, documents DocumentLister) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "chatbot-rag",
			Version: ServerVersion,
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:    server,
		answerer:  answerer,
		documents: documents,
		logger:    log.NewModuleLogger("mcp", "server"),
	}

	// 注册工具：ask_documents
	mcp.AddTool(server, &mcp.Tool{
		Name: "ask_documents",
		Description: `Answer a question using only the indexed documents.
Parameters:
- question (string, required): The question in natural language
- top_k (int, optional): Number of chunks to retrieve, defaults to 5, max 20
- chat_history (array, optional): Previous turns as {role, content} objects

Returns: grounded answer, confidence score (0-1) and the cited source chunks.`,
	}, mcpServer.askDocumentsTool)

	// 注册工具：search_documents
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_documents",
		Description: `Retrieve the document chunks most similar to a query without generating an answer.
Parameters:
- query (string, required): Search query
- top_k (int, optional): Number of chunks, defaults to 5, max 20

Returns: ranked chunks with source file, page and similarity score.`,
	}, mcpServer.searchDocumentsTool)

	// 注册工具：list_documents
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents with their chunk counts. No parameters required.",
	}, mcpServer.listDocumentsTool)

	// 每个请求返回同一个服务器实例
	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}
