package rag

import "github.com/google/wire"

// ProviderSet RAG 应用层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideChunker,
	ProvideRetryPolicy,
	ProvideAnswerConfig,
	ProvideBatchEmbedder,
	NewAnswerService,
	NewIngestService,
	// 接口绑定在 infrastructure 层处理
)
