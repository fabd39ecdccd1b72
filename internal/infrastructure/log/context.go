package log

import (
	"context"
	"log/slog"
)

// contextKey 上下文键类型
type contextKey string

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID contextKey = "request_id"

	// DocumentContextID 文档名
	DocumentContextID contextKey = "document"

	// ClientContextID 调用方标识（http、mcp、watcher）
	ClientContextID contextKey = "client"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithDocument 在上下文中添加文档名
func WithDocument(ctx context.Context, document string) context.Context {
	return context.WithValue(ctx, DocumentContextID, document)
}

// WithClient 在上下文中添加调用方标识
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientContextID, client)
}

// RequestIDFromContext 读取请求 ID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestContextID).(string)
	return id
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range []contextKey{RequestContextID, DocumentContextID, ClientContextID} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}
