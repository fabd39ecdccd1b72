package rag

import (
	"context"
	"fmt"
	"log/slog"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/sourcegraph/conc/pool"
)

// BatchEmbedder 分批并行向量化
// 每个子批次独立重试，结果按输入顺序拼接
type BatchEmbedder struct {
	provider    domainRAG.EmbeddingProvider
	retry       RetryPolicy
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewBatchEmbedder 创建批量向量化器
func NewBatchEmbedder(provider domainRAG.EmbeddingProvider, retry RetryPolicy, batchSize, concurrency int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = 20
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchEmbedder{
		provider:    provider,
		retry:       retry,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      log.NewModuleLogger("rag", "batch_embedder"),
	}
}

// EmbedAll 向量化全部文本
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	totalBatches := (len(texts) + b.batchSize - 1) / b.batchSize

	b.logger.Debug("Embedding texts in batches",
		"total_texts", len(texts),
		"batch_size", b.batchSize,
		"total_batches", totalBatches,
	)

	p := pool.New().WithMaxGoroutines(b.concurrency).WithContext(ctx).WithCancelOnError()
	for i := 0; i < len(texts); i += b.batchSize {
		start := i
		end := min(start+b.batchSize, len(texts))
		batchNum := start/b.batchSize + 1

		p.Go(func(ctx context.Context) error {
			batch := texts[start:end]
			var result [][]float32
			err := b.retry.Do(ctx, func(ctx context.Context) error {
				var err error
				result, err = b.provider.EmbedBatch(ctx, batch)
				return err
			})
			if err != nil {
				b.logger.Error("Failed to embed batch",
					"batch", batchNum,
					"total_batches", totalBatches,
					"error", err,
				)
				return fmt.Errorf("batch %d: %w", batchNum, err)
			}
			if len(result) != len(batch) {
				return fmt.Errorf("%w: batch %d returned %d vectors for %d texts",
					domainRAG.ErrMalformedResult, batchNum, len(result), len(batch))
			}
			// 各批次写入互不重叠的区间
			copy(vectors[start:end], result)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
