package rag

import "context"

// EmbeddingProvider 文本向量化服务
type EmbeddingProvider interface {
	// Embed 单条文本向量化
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch 批量向量化，返回顺序与输入一致
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Info() EmbeddingInfo
}

// VectorIndex 向量索引
// 相似度定义为 1 - 余弦距离，结果按相似度降序排列
type VectorIndex interface {
	// Upsert 按 chunk_id 插入或覆盖
	Upsert(ctx context.Context, records []*IndexRecord) error
	Query(ctx context.Context, vector []float32, topK int, filter *MetadataFilter) ([]*RetrievedResult, error)
	// DeleteByMetadata 删除满足条件的记录，返回删除数量
	DeleteByMetadata(ctx context.Context, filter MetadataFilter) (int, error)
	Count(ctx context.Context) (int, error)
	// ListMetadata 列出所有记录的元数据
	ListMetadata(ctx context.Context) ([]*IndexedChunk, error)
	Clear(ctx context.Context) error
	// Backend 后端名称与集合名称
	Backend() (backend, collection string)
}

// Generator 生成模型
type Generator interface {
	Complete(ctx context.Context, messages []Message, opts GenerationOptions) (string, error)
}

// TextExtractor 文档文本提取
type TextExtractor interface {
	// Supports 是否支持该文件名（按扩展名）
	Supports(filename string) bool
	Extract(filename string, data []byte) (*ExtractedDocument, error)
}

// TokenCounter Token 计数
type TokenCounter interface {
	CountTokens(text string) int
}

// EventPublisher 文档事件推送
type EventPublisher interface {
	Publish(event *DocumentEvent) error
}
