package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// NoDocumentsAnswer 索引为空时的固定回复
const NoDocumentsAnswer = "I don't have any documents indexed yet. Please upload some documents first."

// 引用片段展示长度
const sourcePreviewLength = 200

// AnswerConfig 问答参数
type AnswerConfig struct {
	DefaultTopK int
	Generation  domainRAG.GenerationOptions
	EmbedRetry  RetryPolicy
	IndexRetry  RetryPolicy
	LLMRetry    RetryPolicy
}

// AnswerRequest 问答请求
type AnswerRequest struct {
	Query         string
	History       []domainRAG.Message
	TopK          int
	IncludePrompt bool
}

// AnswerService 检索增强问答
// 单次调用内各阶段严格顺序执行：向量化 -> 检索 -> 组装 -> 生成 -> 评分
// 不保存跨请求的可变状态，可并发调用
type AnswerService struct {
	embedder  domainRAG.EmbeddingProvider
	index     domainRAG.VectorIndex
	generator domainRAG.Generator
	assembler *PromptAssembler
	tokens    domainRAG.TokenCounter
	config    AnswerConfig
	logger    *slog.Logger
}

// NewAnswerService 创建问答服务
// tokens 可为空，为空时不统计 prompt token 数
func NewAnswerService(
	embedder domainRAG.EmbeddingProvider,
	index domainRAG.VectorIndex,
	generator domainRAG.Generator,
	tokens domainRAG.TokenCounter,
	config AnswerConfig,
) *AnswerService {
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = 5
	}
	return &AnswerService{
		embedder:  embedder,
		index:     index,
		generator: generator,
		assembler: NewPromptAssembler(),
		tokens:    tokens,
		config:    config,
		logger:    log.NewModuleLogger("rag", "answer"),
	}
}

// Answer 回答问题
func (s *AnswerService) Answer(ctx context.Context, req *AnswerRequest) (*domainRAG.ChatAnswer, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domainRAG.ErrEmptyInput)
	}
	topK := s.topK(req.TopK)
	logger := s.logger.With(attrsToArgs(log.LogCtxFromContext(ctx))...)
	startTime := time.Now()

	// 1. 检索
	results, err := s.retrieve(ctx, req.Query, topK)
	if err != nil {
		logger.Error("Retrieval failed", "error", err)
		return nil, err
	}

	// 2. 索引为空，直接返回，不调用模型
	if len(results) == 0 {
		logger.Info("No documents indexed, skipping generation")
		return &domainRAG.ChatAnswer{
			Answer:     NoDocumentsAnswer,
			Sources:    []*domainRAG.Source{},
			Confidence: 0.0,
		}, nil
	}

	// 3. 组装提示词（保持检索返回的排序）
	messages := s.assembler.Build(req.Query, results, req.History)

	// 4. 生成
	var answer string
	err = s.config.LLMRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		answer, err = s.generator.Complete(ctx, messages, s.config.Generation)
		return err
	})
	if err != nil {
		logger.Error("Generation failed", "error", err)
		return nil, wrapStageError(domainRAG.ErrGenerationUnavailable, err)
	}

	// 5. 评分与引用
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.SimilarityScore
	}

	chatAnswer := &domainRAG.ChatAnswer{
		Answer:     answer,
		Sources:    ProjectSources(results),
		Confidence: ScoreConfidence(scores),
	}

	// 6. 开发者模式附带提示词
	if req.IncludePrompt {
		transcript := s.assembler.Transcript(messages)
		chatAnswer.PromptUsed = &transcript
		if s.tokens != nil {
			chatAnswer.PromptTokens = s.tokens.CountTokens(transcript)
		}
	}

	logger.Info("Answer generated",
		"top_k", topK,
		"results", len(results),
		"confidence", chatAnswer.Confidence,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return chatAnswer, nil
}

// Search 仅检索，不调用生成模型
func (s *AnswerService) Search(ctx context.Context, query string, topK int) ([]*domainRAG.Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domainRAG.ErrEmptyInput)
	}
	results, err := s.retrieve(ctx, query, s.topK(topK))
	if err != nil {
		return nil, err
	}
	return ProjectSources(results), nil
}

// retrieve 向量化问题并查询索引，两个调用各自独立重试
func (s *AnswerService) retrieve(ctx context.Context, query string, topK int) ([]*domainRAG.RetrievedResult, error) {
	var vector []float32
	err := s.config.EmbedRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		vector, err = s.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, wrapStageError(domainRAG.ErrRetrievalUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domainRAG.ErrMalformedResult)
	}

	var results []*domainRAG.RetrievedResult
	err = s.config.IndexRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.index.Query(ctx, vector, topK, nil)
		return err
	})
	if err != nil {
		return nil, wrapStageError(domainRAG.ErrRetrievalUnavailable, err)
	}
	return results, nil
}

// topK 未指定时使用默认值
func (s *AnswerService) topK(topK int) int {
	if topK <= 0 {
		return s.config.DefaultTopK
	}
	return topK
}

// ProjectSources 将检索结果转换为展示用引用
func ProjectSources(results []*domainRAG.RetrievedResult) []*domainRAG.Source {
	sources := make([]*domainRAG.Source, 0, len(results))
	for _, r := range results {
		source := r.Metadata.Source
		if source == "" {
			source = unknownSource
		}
		sources = append(sources, &domainRAG.Source{
			ChunkID:         r.ChunkID,
			Text:            truncateText(r.Text, sourcePreviewLength),
			Source:          source,
			Page:            r.Metadata.Page,
			SimilarityScore: round4(r.SimilarityScore),
		})
	}
	return sources
}

// truncateText 超过 maxLen 个字符时截断并追加省略号
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

// wrapStageError 标记失败阶段，保留原始错误链
// 取消与格式错误不改写为“不可用”
func wrapStageError(kind, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, domainRAG.ErrMalformedResult) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// attrsToArgs 将 slog.Attr 转换为 With 参数
func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}
