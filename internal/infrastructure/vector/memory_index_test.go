package vector

import (
	"context"
	"testing"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_Contract(t *testing.T) {
	runIndexContract(t, NewMemoryIndex("documents"))
}

func TestMemoryIndex_UpsertCopiesVector(t *testing.T) {
	index := NewMemoryIndex("documents")
	vec := []float32{1, 0}
	require.NoError(t, index.Upsert(context.Background(), []*domainRAG.IndexRecord{{ChunkID: "c1", Vector: vec}}))

	vec[0] = 0
	results, err := index.Query(context.Background(), []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-9)
}

func TestMemoryIndex_Backend(t *testing.T) {
	backend, collection := NewMemoryIndex("docs").Backend()
	assert.Equal(t, "memory", backend)
	assert.Equal(t, "docs", collection)
}
