package rag

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// IngestService 文档入库与管理
type IngestService struct {
	chunker   *Chunker
	embedder  *BatchEmbedder
	index     domainRAG.VectorIndex
	extractor domainRAG.TextExtractor
	tokens    domainRAG.TokenCounter
	publisher domainRAG.EventPublisher
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewIngestService 创建入库服务
// tokens 和 publisher 可为空
func NewIngestService(
	chunker *Chunker,
	embedder *BatchEmbedder,
	index domainRAG.VectorIndex,
	extractor domainRAG.TextExtractor,
	tokens domainRAG.TokenCounter,
	publisher domainRAG.EventPublisher,
	retry RetryPolicy,
) *IngestService {
	return &IngestService{
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		extractor: extractor,
		tokens:    tokens,
		publisher: publisher,
		retry:     retry,
		logger:    log.NewModuleLogger("rag", "ingest"),
	}
}

// Ingest 仅分片，不做向量化与存储
func (s *IngestService) Ingest(text, source string, pageMap domainRAG.PageMap) ([]*domainRAG.DocumentChunk, error) {
	return s.chunker.Chunk(text, source, pageMap)
}

// Supports 是否支持该文件
func (s *IngestService) Supports(filename string) bool {
	return s.extractor != nil && s.extractor.Supports(filename)
}

// IngestFile 提取文件文本后入库
func (s *IngestService) IngestFile(ctx context.Context, filename string, data []byte) (*domainRAG.IngestResult, error) {
	filename = filepath.Base(filename)
	if !s.Supports(filename) {
		return nil, fmt.Errorf("%w: %s", domainRAG.ErrUnsupportedFormat, filepath.Ext(filename))
	}

	doc, err := s.extractor.Extract(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	return s.IngestText(ctx, doc.Text, filename, doc.PageMap)
}

// IngestText 分片、向量化并写入索引
// 同名文档的旧片段会先被删除
func (s *IngestService) IngestText(ctx context.Context, text, source string, pageMap domainRAG.PageMap) (*domainRAG.IngestResult, error) {
	chunks, err := s.chunker.Chunk(text, source, pageMap)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	totalTokens := 0
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		if s.tokens != nil {
			totalTokens += s.tokens.CountTokens(chunk.Text)
		}
	}

	vectors, err := s.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return nil, wrapStageError(domainRAG.ErrRetrievalUnavailable, err)
	}

	records := make([]*domainRAG.IndexRecord, len(chunks))
	newIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		records[i] = &domainRAG.IndexRecord{
			ChunkID:  chunk.ChunkID,
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
		newIDs[i] = chunk.ChunkID
	}

	// 先写入新片段，写入失败时旧版本保持不变
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		return s.index.Upsert(ctx, records)
	})
	if err != nil {
		return nil, wrapStageError(domainRAG.ErrRetrievalUnavailable, err)
	}

	// 再删除同名文档的旧片段
	replaced, err := s.deleteChunks(ctx, domainRAG.MetadataFilter{Source: source, ExcludeIDs: newIDs})
	if err != nil {
		s.logger.Error("Failed to remove previous chunks",
			"source", source,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Document ingested",
		"source", source,
		"chunks", len(chunks),
		"replaced_chunks", replaced,
		"tokens", totalTokens,
	)

	documentID := chunks[0].ChunkID
	s.publish(domainRAG.NewDocumentEvent(domainRAG.DocumentIngested, documentID, source, len(chunks)))

	return &domainRAG.IngestResult{
		DocumentID:  documentID,
		Filename:    source,
		NumChunks:   len(chunks),
		TotalTokens: totalTokens,
		Message:     fmt.Sprintf("Successfully indexed %d chunks from %s", len(chunks), source),
	}, nil
}

// ListDocuments 按来源分组列出文档，按文件名排序
func (s *IngestService) ListDocuments(ctx context.Context) ([]*domainRAG.DocumentInfo, error) {
	entries, err := s.index.ListMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	docs := make(map[string]*domainRAG.DocumentInfo)
	firstIndex := make(map[string]int)
	for _, entry := range entries {
		source := entry.Metadata.Source
		if source == "" {
			source = unknownSource
		}
		doc, ok := docs[source]
		if !ok {
			doc = &domainRAG.DocumentInfo{
				DocumentID: entry.ChunkID,
				Filename:   source,
				CreatedAt:  entry.Metadata.CreatedAt,
			}
			docs[source] = doc
			firstIndex[source] = entry.Metadata.ChunkIndex
		}
		doc.NumChunks++
		// 以第一个片段的 id 作为文档 id
		if entry.Metadata.ChunkIndex < firstIndex[source] {
			doc.DocumentID = entry.ChunkID
			firstIndex[source] = entry.Metadata.ChunkIndex
		}
		if entry.Metadata.CreatedAt.Before(doc.CreatedAt) {
			doc.CreatedAt = entry.Metadata.CreatedAt
		}
	}

	result := make([]*domainRAG.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Filename < result[j].Filename
	})
	return result, nil
}

// DeleteDocument 删除文档的全部片段，返回删除数量
func (s *IngestService) DeleteDocument(ctx context.Context, filename string) (int, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return 0, fmt.Errorf("%w: filename cannot be empty", domainRAG.ErrEmptyInput)
	}

	deleted, err := s.deleteChunks(ctx, domainRAG.MetadataFilter{Source: filename})
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: %s", domainRAG.ErrDocumentNotFound, filename)
	}

	s.logger.Info("Document deleted", "source", filename, "chunks", deleted)
	s.publish(domainRAG.NewDocumentEvent(domainRAG.DocumentDeleted, "", filename, deleted))
	return deleted, nil
}

// CollectionInfo 集合统计
func (s *IngestService) CollectionInfo(ctx context.Context) (*domainRAG.CollectionInfo, error) {
	total, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	backend, collection := s.index.Backend()
	return &domainRAG.CollectionInfo{
		Backend:          backend,
		CollectionName:   collection,
		TotalChunks:      total,
		TotalDocuments:   len(docs),
		SimilarityMetric: "cosine",
	}, nil
}

// Clear 清空索引
func (s *IngestService) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	s.logger.Warn("Collection cleared")
	s.publish(domainRAG.NewDocumentEvent(domainRAG.CollectionCleared, "", "", 0))
	return nil
}

// deleteChunks 按过滤条件删除片段
func (s *IngestService) deleteChunks(ctx context.Context, filter domainRAG.MetadataFilter) (int, error) {
	var deleted int
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.index.DeleteByMetadata(ctx, filter)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", filter.Source, err)
	}
	return deleted, nil
}

// publish 推送事件，失败只记录日志
func (s *IngestService) publish(event *domainRAG.DocumentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("Failed to publish document event",
			"type", event.Type,
			"error", err,
		)
	}
}
