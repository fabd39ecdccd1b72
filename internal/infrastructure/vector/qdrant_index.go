package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/qdrant/go-client/qdrant"
)

// payload 字段名
const (
	payloadChunkID    = "chunk_id"
	payloadText       = "text"
	payloadSource     = "source"
	payloadPage       = "page"
	payloadChunkIndex = "chunk_index"
	payloadCreatedAt  = "created_at"
)

// QdrantIndex 基于 Qdrant 的向量索引，使用余弦距离
// 集合在首次写入时按向量维度创建
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	mu         sync.Mutex
	ready      bool
	// 串行化集合创建
	createMu sync.Mutex
	logger     *slog.Logger
}

var _ domainRAG.VectorIndex = (*QdrantIndex)(nil)

// QdrantOptions Qdrant 连接参数
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// NewQdrantIndex 连接 Qdrant（gRPC 端口）
func NewQdrantIndex(opts QdrantOptions) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &QdrantIndex{
		client:     client,
		collection: opts.Collection,
		logger:     log.NewModuleLogger("vector", "qdrant"),
	}, nil
}

// WaitForReady 等待 Qdrant 服务就绪
func (q *QdrantIndex) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := q.client.ListCollections(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for qdrant to be ready: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// exists 集合是否存在，存在时缓存结果
func (q *QdrantIndex) exists(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ready {
		return true, nil
	}
	ok, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", q.collection, err)
	}
	q.ready = ok
	return ok, nil
}

// ensureCollection 确保集合存在
func (q *QdrantIndex) ensureCollection(ctx context.Context, vectorSize int) error {
	q.createMu.Lock()
	defer q.createMu.Unlock()

	ok, err := q.exists(ctx)
	if err != nil || ok {
		return err
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", q.collection, err)
	}
	q.mu.Lock()
	q.ready = true
	q.mu.Unlock()
	q.logger.Info("Collection created", "collection", q.collection, "vector_size", vectorSize)
	return nil
}

// Upsert 按 chunk_id 写入
func (q *QdrantIndex) Upsert(ctx context.Context, records []*domainRAG.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := q.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ChunkID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(toPayload(r)),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Query 相似度检索
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, topK int, filter *domainRAG.MetadataFilter) ([]*domainRAG.RetrievedResult, error) {
	ok, err := q.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*domainRAG.RetrievedResult{}, nil
	}

	limit := uint64(topK)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	results := make([]*domainRAG.RetrievedResult, 0, len(hits))
	for _, hit := range hits {
		payload := hit.GetPayload()
		id, meta, text := fromPayload(payload)
		if id == "" {
			id = hit.GetId().GetUuid()
		}
		results = append(results, &domainRAG.RetrievedResult{
			ChunkID:         id,
			Text:            text,
			Metadata:        meta,
			SimilarityScore: float64(hit.GetScore()),
		})
	}
	return results, nil
}

// DeleteByMetadata 先计数再按过滤条件删除
func (q *QdrantIndex) DeleteByMetadata(ctx context.Context, filter domainRAG.MetadataFilter) (int, error) {
	ok, err := q.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	qf := buildFilter(&filter)
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Filter:         qf,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	selector := &qdrant.PointsSelector{
		PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: qf},
	}
	if qf == nil {
		selector.PointsSelectorOneOf = &qdrant.PointsSelector_Filter{Filter: &qdrant.Filter{}}
	}
	_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         selector,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete points: %w", err)
	}
	return int(count), nil
}

// Count 记录总数
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	ok, err := q.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(count), nil
}

// ListMetadata 读取全部 payload（不含向量）
func (q *QdrantIndex) ListMetadata(ctx context.Context) ([]*domainRAG.IndexedChunk, error) {
	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []*domainRAG.IndexedChunk{}, nil
	}

	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collection,
		Limit:          qdrant.PtrOf(uint32(total)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	chunks := make([]*domainRAG.IndexedChunk, 0, len(points))
	for _, p := range points {
		id, meta, _ := fromPayload(p.GetPayload())
		if id == "" {
			id = p.GetId().GetUuid()
		}
		chunks = append(chunks, &domainRAG.IndexedChunk{ChunkID: id, Metadata: meta})
	}
	return chunks, nil
}

// Clear 删除集合，下次写入时重建
func (q *QdrantIndex) Clear(ctx context.Context) error {
	ok, err := q.exists(ctx)
	if err != nil || !ok {
		return err
	}
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", q.collection, err)
	}
	q.mu.Lock()
	q.ready = false
	q.mu.Unlock()
	return nil
}

// Backend 后端名称与集合名称
func (q *QdrantIndex) Backend() (string, string) {
	return "qdrant", q.collection
}

// Close 关闭连接
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// buildFilter 转换元数据过滤条件，空条件返回 nil
func buildFilter(filter *domainRAG.MetadataFilter) *qdrant.Filter {
	if filter == nil || filter.IsEmpty() {
		return nil
	}
	qf := &qdrant.Filter{}
	if filter.Source != "" {
		qf.Must = append(qf.Must, qdrant.NewMatch(payloadSource, filter.Source))
	}
	if len(filter.ExcludeIDs) > 0 {
		ids := make([]*qdrant.PointId, len(filter.ExcludeIDs))
		for i, id := range filter.ExcludeIDs {
			ids[i] = qdrant.NewID(id)
		}
		qf.MustNot = append(qf.MustNot, qdrant.NewHasID(ids...))
	}
	return qf
}

// toPayload 构建 payload，页码缺失时写入 -1
func toPayload(r *domainRAG.IndexRecord) map[string]any {
	return map[string]any{
		payloadChunkID:    r.ChunkID,
		payloadText:       r.Text,
		payloadSource:     r.Metadata.Source,
		payloadPage:       int64(domainRAG.EncodePage(r.Metadata.Page)),
		payloadChunkIndex: int64(r.Metadata.ChunkIndex),
		payloadCreatedAt:  r.Metadata.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// fromPayload 解析 payload
func fromPayload(payload map[string]*qdrant.Value) (string, domainRAG.ChunkMetadata, string) {
	var meta domainRAG.ChunkMetadata
	if payload == nil {
		return "", meta, ""
	}
	meta.Source = payload[payloadSource].GetStringValue()
	meta.ChunkIndex = int(payload[payloadChunkIndex].GetIntegerValue())
	if v, ok := payload[payloadPage]; ok && v != nil {
		if _, isInt := v.GetKind().(*qdrant.Value_IntegerValue); isInt {
			meta.Page = domainRAG.DecodePage(int(v.GetIntegerValue()))
		}
	}
	if created := payload[payloadCreatedAt].GetStringValue(); created != "" {
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			meta.CreatedAt = t
		}
	}
	return payload[payloadChunkID].GetStringValue(), meta, payload[payloadText].GetStringValue()
}
