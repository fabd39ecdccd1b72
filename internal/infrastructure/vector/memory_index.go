package vector

import (
	"context"
	"sync"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// MemoryIndex 进程内向量索引，暴力检索
// 适用于测试与小规模语料，进程退出后数据丢失
type MemoryIndex struct {
	mu         sync.RWMutex
	collection string
	records    map[string]*domainRAG.IndexRecord
	// 插入顺序，保证同分结果稳定
	order []string
}

var _ domainRAG.VectorIndex = (*MemoryIndex)(nil)

// NewMemoryIndex 创建内存索引
func NewMemoryIndex(collection string) *MemoryIndex {
	return &MemoryIndex{
		collection: collection,
		records:    make(map[string]*domainRAG.IndexRecord),
	}
}

// Upsert 按 chunk_id 插入或覆盖
func (m *MemoryIndex) Upsert(_ context.Context, records []*domainRAG.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if _, ok := m.records[r.ChunkID]; !ok {
			m.order = append(m.order, r.ChunkID)
		}
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		m.records[r.ChunkID] = &domainRAG.IndexRecord{
			ChunkID:  r.ChunkID,
			Vector:   vec,
			Text:     r.Text,
			Metadata: r.Metadata,
		}
	}
	return nil
}

// Query 返回最相似的 topK 条记录
func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int, filter *domainRAG.MetadataFilter) ([]*domainRAG.RetrievedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*domainRAG.RetrievedResult, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		if filter != nil && !filter.Matches(r.ChunkID, r.Metadata) {
			continue
		}
		results = append(results, &domainRAG.RetrievedResult{
			ChunkID:         r.ChunkID,
			Text:            r.Text,
			Metadata:        r.Metadata,
			SimilarityScore: domainRAG.CosineSimilarity(vector, r.Vector),
		})
	}
	return domainRAG.RankResults(results, topK), nil
}

// DeleteByMetadata 删除满足条件的记录
func (m *MemoryIndex) DeleteByMetadata(_ context.Context, filter domainRAG.MetadataFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	deleted := 0
	for _, id := range m.order {
		if filter.Matches(id, m.records[id].Metadata) {
			delete(m.records, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return deleted, nil
}

// Count 记录总数
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// ListMetadata 列出全部记录的元数据
func (m *MemoryIndex) ListMetadata(_ context.Context) ([]*domainRAG.IndexedChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := make([]*domainRAG.IndexedChunk, 0, len(m.order))
	for _, id := range m.order {
		chunks = append(chunks, &domainRAG.IndexedChunk{
			ChunkID:  id,
			Metadata: m.records[id].Metadata,
		})
	}
	return chunks, nil
}

// Clear 清空索引
func (m *MemoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*domainRAG.IndexRecord)
	m.order = nil
	return nil
}

// Backend 后端名称与集合名称
func (m *MemoryIndex) Backend() (string, string) {
	return "memory", m.collection
}
