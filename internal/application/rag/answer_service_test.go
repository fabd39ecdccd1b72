package rag

import (
	"context"
	"strings"
	"testing"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAnswerService(embedder *MockEmbeddingProvider, index *MockVectorIndex, generator *MockGenerator) *AnswerService {
	return NewAnswerService(embedder, index, generator, fixedTokenCounter{}, AnswerConfig{
		DefaultTopK: 5,
		Generation:  domainRAG.GenerationOptions{Temperature: 0.7, MaxTokens: 1000},
		EmbedRetry:  instantRetry(3),
		IndexRetry:  instantRetry(3),
		LLMRetry:    instantRetry(3),
	})
}

func TestAnswerService_EmptyCorpusSkipsGeneration(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{0.1, 0.2, 0.3}

	embedder.On("Embed", mock.Anything, "What is RAG?").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 5, (*domainRAG.MetadataFilter)(nil)).
		Return([]*domainRAG.RetrievedResult{}, nil)

	service := newTestAnswerService(embedder, index, generator)
	answer, err := service.Answer(context.Background(), &AnswerRequest{Query: "What is RAG?"})

	require.NoError(t, err)
	assert.Equal(t, NoDocumentsAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.Equal(t, 0.0, answer.Confidence)
	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerService_Answer(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{0.1, 0.2, 0.3}
	longText := strings.Repeat("x", 250)

	results := []*domainRAG.RetrievedResult{
		result("c1", "guide.pdf", 2, "RAG combines retrieval with generation.", 0.9),
		result("c2", "guide.pdf", 3, longText, 0.8),
		result("c3", "notes.txt", 0, "Vectors are compared by cosine similarity.", 0.7),
	}
	history := []domainRAG.Message{{Role: domainRAG.RoleUser, Content: "hi"}, {Role: domainRAG.RoleAssistant, Content: "hello"}}

	embedder.On("Embed", mock.Anything, "What is RAG?").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 3, (*domainRAG.MetadataFilter)(nil)).Return(results, nil)
	generator.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []domainRAG.Message) bool {
		return len(msgs) == 4 &&
			msgs[0].Role == domainRAG.RoleSystem &&
			strings.Contains(msgs[0].Content, "[Source 1: guide.pdf, Page 2]\nRAG combines retrieval with generation.") &&
			msgs[1] == history[0] &&
			msgs[3].Content == "What is RAG?"
	}), domainRAG.GenerationOptions{Temperature: 0.7, MaxTokens: 1000}).
		Return("RAG retrieves context before generating. [Source 1]", nil)

	service := newTestAnswerService(embedder, index, generator)
	answer, err := service.Answer(context.Background(), &AnswerRequest{
		Query:   "What is RAG?",
		History: history,
		TopK:    3,
	})

	require.NoError(t, err)
	assert.Equal(t, "RAG retrieves context before generating. [Source 1]", answer.Answer)
	assert.Equal(t, 0.8364, answer.Confidence)
	assert.Nil(t, answer.PromptUsed)

	require.Len(t, answer.Sources, 3)
	assert.Equal(t, "c1", answer.Sources[0].ChunkID)
	assert.Equal(t, 2, *answer.Sources[0].Page)
	assert.Equal(t, strings.Repeat("x", 200)+"...", answer.Sources[1].Text)
	assert.Nil(t, answer.Sources[2].Page)
	assert.Equal(t, "notes.txt", answer.Sources[2].Source)
	generator.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAnswerService_IncludePrompt(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{1, 0, 0}

	embedder.On("Embed", mock.Anything, "q").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 5, (*domainRAG.MetadataFilter)(nil)).
		Return([]*domainRAG.RetrievedResult{result("c1", "a.txt", 0, "ctx", 0.5)}, nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("a", nil)

	service := newTestAnswerService(embedder, index, generator)
	answer, err := service.Answer(context.Background(), &AnswerRequest{Query: "q", IncludePrompt: true})

	require.NoError(t, err)
	require.NotNil(t, answer.PromptUsed)
	assert.True(t, strings.HasPrefix(*answer.PromptUsed, "=== SYSTEM ===\n"))
	assert.Contains(t, *answer.PromptUsed, "=== USER ===\nq\n")
	assert.Equal(t, len([]rune(*answer.PromptUsed)), answer.PromptTokens)
}

func TestAnswerService_EmptyQuery(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	service := newTestAnswerService(embedder, new(MockVectorIndex), new(MockGenerator))

	_, err := service.Answer(context.Background(), &AnswerRequest{Query: "   "})

	assert.ErrorIs(t, err, domainRAG.ErrEmptyInput)
	embedder.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestAnswerService_EmbeddingUnavailable(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)

	embedder.On("Embed", mock.Anything, "q").Return(nil, domainRAG.NewStatusError("embedding", 503))

	service := newTestAnswerService(embedder, index, generator)
	_, err := service.Answer(context.Background(), &AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domainRAG.ErrRetrievalUnavailable)
	embedder.AssertNumberOfCalls(t, "Embed", 3)
	index.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerService_IndexRetriedIndependently(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{1, 0, 0}

	embedder.On("Embed", mock.Anything, "q").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 5, (*domainRAG.MetadataFilter)(nil)).
		Return(nil, domainRAG.NewStatusError("qdrant", 503)).Once()
	index.On("Query", mock.Anything, vec, 5, (*domainRAG.MetadataFilter)(nil)).
		Return([]*domainRAG.RetrievedResult{}, nil).Once()

	service := newTestAnswerService(embedder, index, generator)
	answer, err := service.Answer(context.Background(), &AnswerRequest{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, NoDocumentsAnswer, answer.Answer)
	embedder.AssertNumberOfCalls(t, "Embed", 1)
	index.AssertNumberOfCalls(t, "Query", 2)
}

func TestAnswerService_GenerationUnavailable(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{1, 0, 0}

	embedder.On("Embed", mock.Anything, "q").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 5, (*domainRAG.MetadataFilter)(nil)).
		Return([]*domainRAG.RetrievedResult{result("c1", "a.txt", 0, "ctx", 0.5)}, nil)
	generator.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", domainRAG.NewStatusError("llm", 401))

	service := newTestAnswerService(embedder, index, generator)
	_, err := service.Answer(context.Background(), &AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domainRAG.ErrGenerationUnavailable)
	// 401 不重试
	generator.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAnswerService_EmptyEmbeddingIsMalformed(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	embedder.On("Embed", mock.Anything, "q").Return([]float32{}, nil)

	service := newTestAnswerService(embedder, new(MockVectorIndex), new(MockGenerator))
	_, err := service.Answer(context.Background(), &AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domainRAG.ErrMalformedResult)
	assert.NotErrorIs(t, err, domainRAG.ErrRetrievalUnavailable)
}

func TestAnswerService_Search(t *testing.T) {
	embedder := new(MockEmbeddingProvider)
	index := new(MockVectorIndex)
	generator := new(MockGenerator)
	vec := []float32{1, 0, 0}

	embedder.On("Embed", mock.Anything, "cosine").Return(vec, nil)
	index.On("Query", mock.Anything, vec, 2, (*domainRAG.MetadataFilter)(nil)).Return([]*domainRAG.RetrievedResult{
		result("c1", "a.txt", 0, "first", 0.912345),
		result("c2", "b.txt", 4, "second", 0.5),
	}, nil)

	service := newTestAnswerService(embedder, index, generator)
	sources, err := service.Search(context.Background(), "cosine", 2)

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, 0.9123, sources[0].SimilarityScore)
	assert.Equal(t, 4, *sources[1].Page)
	generator.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}
