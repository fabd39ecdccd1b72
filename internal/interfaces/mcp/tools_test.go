package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnswerer 问答服务 mock
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, req *appRAG.AnswerRequest) (*domainRAG.ChatAnswer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRAG.ChatAnswer), args.Error(1)
}

func (m *MockAnswerer) Search(ctx context.Context, query string, topK int) ([]*domainRAG.Source, error) {
	args := m.Called(ctx, query, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.Source), args.Error(1)
}

// MockDocumentLister 文档列表 mock
type MockDocumentLister struct {
	mock.Mock
}

func (m *MockDocumentLister) ListDocuments(ctx context.Context) ([]*domainRAG.DocumentInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.DocumentInfo), args.Error(1)
}

func intPtr(v int) *int { return &v }

func TestAskDocumentsTool(t *testing.T) {
	t.Run("answers with sources", func(t *testing.T) {
		answerer := new(MockAnswerer)
		server := NewServer(answerer, new(MockDocumentLister))

		answerer.On("Answer", mock.Anything, mock.MatchedBy(func(req *appRAG.AnswerRequest) bool {
			return req.Query == "What is RAG?" && req.TopK == 20 && len(req.History) == 1 &&
				req.History[0].Role == domainRAG.RoleUser
		})).Return(&domainRAG.ChatAnswer{
			Answer:     "Retrieval augmented generation.",
			Confidence: 0.82,
			Sources: []*domainRAG.Source{
				{ChunkID: "c1", Text: "RAG combines...", Source: "rag.pdf", Page: intPtr(2), SimilarityScore: 0.82},
			},
		}, nil)

		_, out, err := server.askDocumentsTool(context.Background(), nil, AskDocumentsInput{
			Question:    "What is RAG?",
			TopK:        50,
			ChatHistory: []HistoryMessage{{Role: "user", Content: "hi"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Retrieval augmented generation.", out.Answer)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "rag.pdf", out.Sources[0].Source)
		assert.Equal(t, 2, *out.Sources[0].Page)
		assert.Equal(t, "high", out.Sources[0].Relevance)
		answerer.AssertExpectations(t)
	})

	t.Run("empty question", func(t *testing.T) {
		answerer := new(MockAnswerer)
		server := NewServer(answerer, new(MockDocumentLister))

		_, _, err := server.askDocumentsTool(context.Background(), nil, AskDocumentsInput{Question: "  "})
		assert.Error(t, err)
		answerer.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("invalid history role", func(t *testing.T) {
		server := NewServer(new(MockAnswerer), new(MockDocumentLister))

		_, _, err := server.askDocumentsTool(context.Background(), nil, AskDocumentsInput{
			Question:    "q",
			ChatHistory: []HistoryMessage{{Role: "robot", Content: "x"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid role")
	})

	t.Run("service error", func(t *testing.T) {
		answerer := new(MockAnswerer)
		server := NewServer(answerer, new(MockDocumentLister))
		answerer.On("Answer", mock.Anything, mock.Anything).Return(nil, domainRAG.ErrGenerationUnavailable)

		_, _, err := server.askDocumentsTool(context.Background(), nil, AskDocumentsInput{Question: "q"})
		assert.ErrorIs(t, err, domainRAG.ErrGenerationUnavailable)
	})
}

func TestSearchDocumentsTool(t *testing.T) {
	answerer := new(MockAnswerer)
	server := NewServer(answerer, new(MockDocumentLister))
	answerer.On("Search", mock.Anything, "chunking", 0).Return([]*domainRAG.Source{
		{ChunkID: "a", Source: "a.md", SimilarityScore: 0.5},
		{ChunkID: "b", Source: "b.md", SimilarityScore: 0.1},
	}, nil)

	_, out, err := server.searchDocumentsTool(context.Background(), nil, SearchDocumentsInput{Query: "chunking"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalCount)
	assert.Equal(t, "medium", out.Results[0].Relevance)
	assert.Equal(t, "low", out.Results[1].Relevance)
	assert.Nil(t, out.Results[0].Page)

	_, _, err = server.searchDocumentsTool(context.Background(), nil, SearchDocumentsInput{})
	assert.Error(t, err)
}

func TestListDocumentsTool(t *testing.T) {
	lister := new(MockDocumentLister)
	server := NewServer(new(MockAnswerer), lister)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lister.On("ListDocuments", mock.Anything).Return([]*domainRAG.DocumentInfo{
		{DocumentID: "id", Filename: "notes.txt", NumChunks: 3, CreatedAt: created},
	}, nil).Once()

	_, out, err := server.listDocumentsTool(context.Background(), nil, ListDocumentsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalCount)
	assert.Equal(t, "notes.txt", out.Documents[0].Filename)
	assert.Equal(t, "2026-01-02T03:04:05Z", out.Documents[0].CreatedAt)

	lister.On("ListDocuments", mock.Anything).Return(nil, errors.New("boom")).Once()
	_, _, err = server.listDocumentsTool(context.Background(), nil, ListDocumentsInput{})
	assert.Error(t, err)
}

func TestClampTopK(t *testing.T) {
	assert.Equal(t, 0, clampTopK(-3))
	assert.Equal(t, 0, clampTopK(0))
	assert.Equal(t, 7, clampTopK(7))
	assert.Equal(t, maxTopK, clampTopK(100))
}

func TestGetHandler(t *testing.T) {
	server := NewServer(new(MockAnswerer), new(MockDocumentLister))
	assert.NotNil(t, server.GetHandler())
}
