package handler

import (
	"context"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/mock"
)

// MockDocumentService 文档服务 mock
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) IngestFile(ctx context.Context, filename string, data []byte) (*domainRAG.IngestResult, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRAG.IngestResult), args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context) ([]*domainRAG.DocumentInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.DocumentInfo), args.Error(1)
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, filename string) (int, error) {
	args := m.Called(ctx, filename)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentService) CollectionInfo(ctx context.Context) (*domainRAG.CollectionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRAG.CollectionInfo), args.Error(1)
}

func (m *MockDocumentService) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockChatService 问答服务 mock
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Answer(ctx context.Context, req *appRAG.AnswerRequest) (*domainRAG.ChatAnswer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRAG.ChatAnswer), args.Error(1)
}

func (m *MockChatService) Search(ctx context.Context, query string, topK int) ([]*domainRAG.Source, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.Source), args.Error(1)
}

// stubEmbedder 只提供 Info 的 Embedding 实现
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (stubEmbedder) Info() domainRAG.EmbeddingInfo {
	return domainRAG.EmbeddingInfo{Provider: "openai", Model: "test-model", Dimension: 3}
}
