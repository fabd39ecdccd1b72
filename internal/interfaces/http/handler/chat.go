package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// ChatHandler 问答处理器
type ChatHandler struct {
	chat        ChatService
	defaultTopK int
	maxTopK     int
	logger      *slog.Logger
}

// NewChatHandler 创建问答处理器
func NewChatHandler(chat ChatService, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		defaultTopK: cfg.Retrieval.TopK,
		maxTopK:     cfg.Retrieval.MaxTopK,
		logger:      log.NewModuleLogger("http", "chat"),
	}
}

// ChatRequest 问答请求
type ChatRequest struct {
	Query       string              `json:"query"`
	ChatHistory []domainRAG.Message `json:"chat_history" binding:"omitempty,dive"`
	TopK        *int                `json:"top_k,omitempty"`
}

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// SearchResponse 检索响应
type SearchResponse struct {
	Results []*domainRAG.Source `json:"results"`
	Count   int                 `json:"count"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Chat 检索增强问答
// @Summary 问答
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "问题与历史"
// @Param developer_mode query bool false "返回使用的提示词"
// @Success 200 {object} domainRAG.ChatAnswer
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /api/chat/ [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request", "Query cannot be empty")
		return
	}
	topK, ok := h.resolveTopK(c, req.TopK)
	if !ok {
		return
	}

	developerMode, _ := strconv.ParseBool(c.DefaultQuery("developer_mode", "false"))

	answer, err := h.chat.Answer(c.Request.Context(), &appRAG.AnswerRequest{
		Query:         req.Query,
		History:       req.ChatHistory,
		TopK:          topK,
		IncludePrompt: developerMode,
	})
	if err != nil {
		response.FromError(c, h.logger, "Error processing query", err)
		return
	}

	response.Success(c, answer)
}

// Search 仅检索相关片段
// @Summary 检索
// @Tags chat
// @Accept json
// @Produce json
// @Param request body SearchRequest true "检索请求"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/chat/search [post]
func (h *ChatHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request", "Query cannot be empty")
		return
	}
	topK, ok := h.resolveTopK(c, req.TopK)
	if !ok {
		return
	}

	sources, err := h.chat.Search(c.Request.Context(), req.Query, topK)
	if err != nil {
		response.FromError(c, h.logger, "Error searching documents", err)
		return
	}

	response.Success(c, SearchResponse{Results: sources, Count: len(sources)})
}

// Health 问答服务健康检查
// @Summary 问答服务健康检查
// @Tags chat
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/chat/health [get]
func (h *ChatHandler) Health(c *gin.Context) {
	response.Success(c, HealthResponse{Status: "healthy", Service: "RAG Chat API"})
}

// resolveTopK 未指定时使用默认值，越界时写出 400
func (h *ChatHandler) resolveTopK(c *gin.Context, topK *int) (int, bool) {
	if topK == nil {
		return h.defaultTopK, true
	}
	if *topK < 1 || *topK > h.maxTopK {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("top_k must be between 1 and %d", h.maxTopK))
		return 0, false
	}
	return *topK, true
}
