package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageMap_PageAt(t *testing.T) {
	pages := PageMap{0: 1, 500: 2, 1200: 3}

	tests := []struct {
		offset   int
		expected int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{600, 2},
		{1199, 2},
		{1200, 3},
		{99999, 3},
	}

	for _, tt := range tests {
		page := pages.PageAt(tt.offset)
		require.NotNil(t, page, "offset %d", tt.offset)
		assert.Equal(t, tt.expected, *page, "offset %d", tt.offset)
	}
}

func TestPageMap_BeforeFirstOffset(t *testing.T) {
	pages := PageMap{100: 2}
	assert.Nil(t, pages.PageAt(50))
}

func TestPageMap_Empty(t *testing.T) {
	var pages PageMap
	assert.True(t, pages.Index().Empty())
	assert.Nil(t, pages.PageAt(10))
}

func TestMetadataFilter_Matches(t *testing.T) {
	meta := ChunkMetadata{Source: "report.pdf"}

	assert.True(t, MetadataFilter{}.IsEmpty())
	assert.True(t, MetadataFilter{}.Matches("c1", meta))
	assert.True(t, MetadataFilter{Source: "report.pdf"}.Matches("c1", meta))
	assert.False(t, MetadataFilter{Source: "other.pdf"}.Matches("c1", meta))

	keep := MetadataFilter{Source: "report.pdf", ExcludeIDs: []string{"c2"}}
	assert.False(t, keep.IsEmpty())
	assert.True(t, keep.Matches("c1", meta))
	assert.False(t, keep.Matches("c2", meta))
}

func TestPageSentinel(t *testing.T) {
	assert.Equal(t, NoPage, EncodePage(nil))
	assert.Equal(t, 3, EncodePage(IntPtr(3)))
	assert.Nil(t, DecodePage(NoPage))
	assert.Equal(t, 0, *DecodePage(0))
}
