package rag

import (
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
)

// ProvideChunker 按配置创建分片器
func ProvideChunker(cfg *config.Config) *Chunker {
	return NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
}

// ProvideRetryPolicy 按配置创建重试策略
func ProvideRetryPolicy(cfg *config.Config) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoff > 0 {
		policy.InitialBackoff = cfg.Retry.InitialBackoff
	}
	if cfg.Retry.MaxBackoff > 0 {
		policy.MaxBackoff = cfg.Retry.MaxBackoff
	}
	policy.Jitter = cfg.Retry.Jitter
	return policy
}

// ProvideAnswerConfig 问答参数，三个外部调用使用同一策略的独立副本
func ProvideAnswerConfig(cfg *config.Config, retry RetryPolicy) AnswerConfig {
	return AnswerConfig{
		DefaultTopK: cfg.Retrieval.TopK,
		Generation: domainRAG.GenerationOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		EmbedRetry: retry,
		IndexRetry: retry,
		LLMRetry:   retry,
	}
}

// ProvideBatchEmbedder 按配置创建批量向量化器
func ProvideBatchEmbedder(provider domainRAG.EmbeddingProvider, retry RetryPolicy, cfg *config.Config) *BatchEmbedder {
	return NewBatchEmbedder(provider, retry, cfg.Embedding.BatchSize, cfg.Embedding.Concurrency)
}

