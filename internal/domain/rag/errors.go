package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrEmptyInput 输入文本为空或只有空白
	ErrEmptyInput = errors.New("empty input")
	// ErrRetrievalUnavailable 向量化或索引查询重试耗尽
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable 生成模型调用重试耗尽
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrMalformedResult 外部服务返回的结果不符合约定（如向量数量与输入不一致）
	ErrMalformedResult = errors.New("malformed provider result")

	// ErrDocumentNotFound 文档不存在
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnsupportedFormat 不支持的文件格式
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractedTextTooShort 提取出的文本过短
	ErrExtractedTextTooShort = errors.New("extracted text too short")
)

// ProviderError 外部服务调用错误
// Error() 只包含服务名与状态码，不包含凭据和原始响应体
type ProviderError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed", e.Provider)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewStatusError 根据 HTTP 状态码构造错误
func NewStatusError(provider string, statusCode int) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Transient:  IsTransientStatus(statusCode),
	}
}

// IsTransientStatus 429 与 5xx 视为可重试
func IsTransientStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout ||
		statusCode >= http.StatusInternalServerError
}

// IsTransient 判断错误是否值得重试
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrMalformedResult) || errors.Is(err, ErrEmptyInput) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// 未分类错误（连接拒绝、gRPC Unavailable 等）默认可重试
	return true
}
