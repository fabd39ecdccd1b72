package vector

import (
	"context"
	"testing"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRecords 三个方向不同的记录
func sampleRecords() []*domainRAG.IndexRecord {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*domainRAG.IndexRecord{
		{
			ChunkID: "7b0f7c4e-0000-4000-8000-000000000001",
			Vector:  []float32{1, 0, 0},
			Text:    "alpha",
			Metadata: domainRAG.ChunkMetadata{
				Source: "a.pdf", Page: domainRAG.IntPtr(1), ChunkIndex: 0, CreatedAt: now,
			},
		},
		{
			ChunkID: "7b0f7c4e-0000-4000-8000-000000000002",
			Vector:  []float32{0.9, 0.1, 0},
			Text:    "alpha prime",
			Metadata: domainRAG.ChunkMetadata{
				Source: "a.pdf", Page: domainRAG.IntPtr(2), ChunkIndex: 1, CreatedAt: now,
			},
		},
		{
			ChunkID:  "7b0f7c4e-0000-4000-8000-000000000003",
			Vector:   []float32{0, 1, 0},
			Text:     "beta",
			Metadata: domainRAG.ChunkMetadata{Source: "b.txt", ChunkIndex: 0, CreatedAt: now},
		},
	}
}

// runIndexContract 所有后端共用的行为测试
func runIndexContract(t *testing.T, index domainRAG.VectorIndex) {
	ctx := context.Background()
	records := sampleRecords()

	require.NoError(t, index.Clear(ctx))
	require.NoError(t, index.Upsert(ctx, records))

	t.Run("自身向量排第一", func(t *testing.T) {
		results, err := index.Query(ctx, records[0].Vector, 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, records[0].ChunkID, results[0].ChunkID)
		assert.GreaterOrEqual(t, results[0].SimilarityScore, 0.95)
		assert.Equal(t, "alpha", results[0].Text)
		assert.Equal(t, "a.pdf", results[0].Metadata.Source)
		require.NotNil(t, results[0].Metadata.Page)
		assert.Equal(t, 1, *results[0].Metadata.Page)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].SimilarityScore, results[i].SimilarityScore)
		}
	})

	t.Run("topK 截断", func(t *testing.T) {
		results, err := index.Query(ctx, records[0].Vector, 1, nil)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("元数据过滤", func(t *testing.T) {
		results, err := index.Query(ctx, records[0].Vector, 5, &domainRAG.MetadataFilter{Source: "b.txt"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, records[2].ChunkID, results[0].ChunkID)
		assert.Nil(t, results[0].Metadata.Page)
	})

	t.Run("重复写入幂等", func(t *testing.T) {
		require.NoError(t, index.Upsert(ctx, records))
		count, err := index.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("列出元数据", func(t *testing.T) {
		chunks, err := index.ListMetadata(ctx)
		require.NoError(t, err)
		assert.Len(t, chunks, 3)
	})

	t.Run("按来源删除时保留排除的片段", func(t *testing.T) {
		deleted, err := index.DeleteByMetadata(ctx, domainRAG.MetadataFilter{
			Source:     "a.pdf",
			ExcludeIDs: []string{records[1].ChunkID},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		results, err := index.Query(ctx, records[0].Vector, 5, &domainRAG.MetadataFilter{Source: "a.pdf"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, records[1].ChunkID, results[0].ChunkID)

		results, err = index.Query(ctx, records[0].Vector, 5, &domainRAG.MetadataFilter{
			ExcludeIDs: []string{records[1].ChunkID},
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, records[2].ChunkID, results[0].ChunkID)
	})

	t.Run("按来源删除", func(t *testing.T) {
		deleted, err := index.DeleteByMetadata(ctx, domainRAG.MetadataFilter{Source: "a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		deleted, err = index.DeleteByMetadata(ctx, domainRAG.MetadataFilter{Source: "a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, 0, deleted)

		count, err := index.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("清空", func(t *testing.T) {
		require.NoError(t, index.Clear(ctx))
		count, err := index.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		results, err := index.Query(ctx, records[0].Vector, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
