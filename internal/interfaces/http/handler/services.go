package handler

import (
	"context"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// DocumentService 文档管理服务
type DocumentService interface {
	IngestFile(ctx context.Context, filename string, data []byte) (*domainRAG.IngestResult, error)
	ListDocuments(ctx context.Context) ([]*domainRAG.DocumentInfo, error)
	DeleteDocument(ctx context.Context, filename string) (int, error)
	CollectionInfo(ctx context.Context) (*domainRAG.CollectionInfo, error)
	Clear(ctx context.Context) error
}

// ChatService 问答服务
type ChatService interface {
	Answer(ctx context.Context, req *appRAG.AnswerRequest) (*domainRAG.ChatAnswer, error)
	Search(ctx context.Context, query string, topK int) ([]*domainRAG.Source, error)
}

// FileFormats 支持的上传格式
type FileFormats interface {
	Supports(filename string) bool
	UnsupportedMessage(filename string) string
}

// 编译期检查
var (
	_ DocumentService = (*appRAG.IngestService)(nil)
	_ ChatService     = (*appRAG.AnswerService)(nil)
)
