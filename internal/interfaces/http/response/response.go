package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// MessageResponse 简单消息响应
type MessageResponse struct {
	Message string `json:"message"`
}

// Success 成功响应，直接返回数据
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{Error: message})
}

// ErrorWithDetail 带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, message, detail string) {
	c.JSON(httpCode, ErrorResponse{Error: message, Detail: detail})
}

// StatusFor 错误类型对应的 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domainRAG.ErrEmptyInput),
		errors.Is(err, domainRAG.ErrUnsupportedFormat),
		errors.Is(err, domainRAG.ErrExtractedTextTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domainRAG.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainRAG.ErrMalformedResult):
		return http.StatusBadGateway
	case errors.Is(err, domainRAG.ErrRetrievalUnavailable),
		errors.Is(err, domainRAG.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage 对外错误信息，不暴露底层原因
func publicMessage(status int, err error) string {
	switch {
	case errors.Is(err, domainRAG.ErrRetrievalUnavailable):
		return "Retrieval service unavailable"
	case errors.Is(err, domainRAG.ErrGenerationUnavailable):
		return "Generation service unavailable"
	case errors.Is(err, domainRAG.ErrMalformedResult):
		return "Upstream provider returned an invalid result"
	}
	if status == http.StatusGatewayTimeout {
		return "Request timed out"
	}
	return http.StatusText(status)
}

// FromError 按错误类型写出响应并记录原因
// 4xx 的 detail 使用错误信息，5xx 只返回通用说明
func FromError(c *gin.Context, logger *slog.Logger, message string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, "error", err, "status", status)
		ErrorWithDetail(c, status, message, publicMessage(status, err))
		return
	}
	logger.Warn(message, "error", err, "status", status)
	ErrorWithDetail(c, status, message, err.Error())
}
