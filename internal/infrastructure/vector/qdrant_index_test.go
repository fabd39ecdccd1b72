package vector

import (
	"testing"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	record := &domainRAG.IndexRecord{
		ChunkID: "7b0f7c4e-0000-4000-8000-000000000001",
		Text:    "alpha",
		Metadata: domainRAG.ChunkMetadata{
			Source:     "a.pdf",
			Page:       domainRAG.IntPtr(3),
			ChunkIndex: 4,
			CreatedAt:  created,
		},
	}

	id, meta, text := fromPayload(qdrant.NewValueMap(toPayload(record)))

	assert.Equal(t, record.ChunkID, id)
	assert.Equal(t, "alpha", text)
	assert.Equal(t, "a.pdf", meta.Source)
	require.NotNil(t, meta.Page)
	assert.Equal(t, 3, *meta.Page)
	assert.Equal(t, 4, meta.ChunkIndex)
	assert.True(t, created.Equal(meta.CreatedAt))
}

func TestPayloadWithoutPage(t *testing.T) {
	record := &domainRAG.IndexRecord{ChunkID: "c1", Metadata: domainRAG.ChunkMetadata{Source: "b.txt"}}

	payload := toPayload(record)
	assert.Equal(t, int64(-1), payload[payloadPage])

	_, meta, _ := fromPayload(qdrant.NewValueMap(payload))
	assert.Nil(t, meta.Page)
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(&domainRAG.MetadataFilter{}))

	filter := buildFilter(&domainRAG.MetadataFilter{Source: "a.pdf"})
	require.NotNil(t, filter)
	require.Len(t, filter.GetMust(), 1)
	assert.Equal(t, payloadSource, filter.GetMust()[0].GetField().GetKey())
	assert.Equal(t, "a.pdf", filter.GetMust()[0].GetField().GetMatch().GetKeyword())
	assert.Empty(t, filter.GetMustNot())

	filter = buildFilter(&domainRAG.MetadataFilter{
		Source:     "a.pdf",
		ExcludeIDs: []string{"7b0f7c4e-0000-4000-8000-000000000001"},
	})
	require.NotNil(t, filter)
	require.Len(t, filter.GetMust(), 1)
	require.Len(t, filter.GetMustNot(), 1)
	ids := filter.GetMustNot()[0].GetHasId().GetHasId()
	require.Len(t, ids, 1)
	assert.Equal(t, "7b0f7c4e-0000-4000-8000-000000000001", ids[0].GetUuid())
}
