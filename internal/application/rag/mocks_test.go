package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingProvider 模拟 EmbeddingProvider
type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) Info() domainRAG.EmbeddingInfo {
	return domainRAG.EmbeddingInfo{Provider: "mock", Model: "mock", Dimension: 3}
}

// MockVectorIndex 模拟 VectorIndex
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Upsert(ctx context.Context, records []*domainRAG.IndexRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter *domainRAG.MetadataFilter) ([]*domainRAG.RetrievedResult, error) {
	args := m.Called(ctx, vector, topK, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.RetrievedResult), args.Error(1)
}

func (m *MockVectorIndex) DeleteByMetadata(ctx context.Context, filter domainRAG.MetadataFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorIndex) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorIndex) ListMetadata(ctx context.Context) ([]*domainRAG.IndexedChunk, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domainRAG.IndexedChunk), args.Error(1)
}

func (m *MockVectorIndex) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorIndex) Backend() (string, string) {
	return "mock", "documents"
}

// MockGenerator 模拟 Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, messages []domainRAG.Message, opts domainRAG.GenerationOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

// MockTextExtractor 模拟 TextExtractor
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Supports(filename string) bool {
	args := m.Called(filename)
	return args.Bool(0)
}

func (m *MockTextExtractor) Extract(filename string, data []byte) (*domainRAG.ExtractedDocument, error) {
	args := m.Called(filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRAG.ExtractedDocument), args.Error(1)
}

// MockEventPublisher 模拟 EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event *domainRAG.DocumentEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// fixedTokenCounter 每个字符计 1 个 token
type fixedTokenCounter struct{}

func (fixedTokenCounter) CountTokens(text string) int {
	return len([]rune(text))
}

// fakeEmbedder 文本 "tN" 的向量为 [N]，可并发调用
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	short   bool
	failFor map[string]error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for _, text := range texts {
		if err, ok := f.failFor[text]; ok {
			return nil, err
		}
	}

	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		n, err := strconv.Atoi(strings.TrimPrefix(text, "t"))
		if err != nil {
			n = len(text)
		}
		vecs = append(vecs, []float32{float32(n)})
	}
	if f.short && len(vecs) > 0 {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, nil
}

func (f *fakeEmbedder) Info() domainRAG.EmbeddingInfo {
	return domainRAG.EmbeddingInfo{Provider: "fake", Model: "fake", Dimension: 1}
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// instantRetry 不等待的重试策略
func instantRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     10 * time.Second,
		sleep:          func(context.Context, time.Duration) error { return nil },
	}
}

// result 构造检索结果
func result(id, source string, page int, text string, score float64) *domainRAG.RetrievedResult {
	meta := domainRAG.ChunkMetadata{Source: source}
	if page > 0 {
		meta.Page = domainRAG.IntPtr(page)
	}
	return &domainRAG.RetrievedResult{
		ChunkID:         id,
		Text:            text,
		Metadata:        meta,
		SimilarityScore: score,
	}
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}
