package rag

import (
	"slices"
	"sort"
	"time"
)

// DocumentChunk 文档片段，检索的最小单位
// 创建后不可变，仅随所属文档（按 source）级联删除
type DocumentChunk struct {
	ChunkID  string        `json:"chunk_id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata 片段来源信息
type ChunkMetadata struct {
	Source     string    `json:"source"`         // 文件名
	Page       *int      `json:"page,omitempty"` // 页码，未知时为空
	ChunkIndex int       `json:"chunk_index"`    // 在文档中的顺序
	CreatedAt  time.Time `json:"created_at"`
}

// PageMap 文本偏移 -> 页码
type PageMap map[int]int

// PageAt 返回起始偏移不大于 offset 的最后一页
// 没有满足条件的记录时返回 nil
func (m PageMap) PageAt(offset int) *int {
	return m.Index().PageAt(offset)
}

// Index 构建有序页码索引，便于对同一文档多次查询
func (m PageMap) Index() PageIndex {
	idx := PageIndex{offsets: make([]int, 0, len(m))}
	for off := range m {
		idx.offsets = append(idx.offsets, off)
	}
	sort.Ints(idx.offsets)
	idx.pages = make([]int, len(idx.offsets))
	for i, off := range idx.offsets {
		idx.pages[i] = m[off]
	}
	return idx
}

// PageIndex 按偏移升序排列的页码索引
type PageIndex struct {
	offsets []int
	pages   []int
}

// PageAt 二分查找 offset 所在页
func (p PageIndex) PageAt(offset int) *int {
	// 第一个大于 offset 的位置
	i := sort.Search(len(p.offsets), func(i int) bool { return p.offsets[i] > offset })
	if i == 0 {
		return nil
	}
	page := p.pages[i-1]
	return &page
}

// Empty 是否没有任何页码记录
func (p PageIndex) Empty() bool {
	return len(p.offsets) == 0
}

// IndexRecord 写入向量索引的一条记录
type IndexRecord struct {
	ChunkID  string
	Vector   []float32
	Text     string
	Metadata ChunkMetadata
}

// IndexedChunk 索引中已存在片段的元数据视图（不含向量）
type IndexedChunk struct {
	ChunkID  string
	Metadata ChunkMetadata
}

// MetadataFilter 元数据过滤条件，字段为空表示不限制
type MetadataFilter struct {
	Source string
	// ExcludeIDs 不参与匹配的 chunk_id
	ExcludeIDs []string
}

// IsEmpty 是否为空过滤
func (f MetadataFilter) IsEmpty() bool {
	return f.Source == "" && len(f.ExcludeIDs) == 0
}

// Matches 判断记录是否满足条件
func (f MetadataFilter) Matches(chunkID string, meta ChunkMetadata) bool {
	if f.Source != "" && meta.Source != f.Source {
		return false
	}
	return !slices.Contains(f.ExcludeIDs, chunkID)
}

// IntPtr 返回 v 的指针
func IntPtr(v int) *int {
	return &v
}

// NoPage 存储层中表示“无页码”的取值，仅用于不支持空值的存储
const NoPage = -1

// EncodePage 页码转存储值
func EncodePage(page *int) int {
	if page == nil {
		return NoPage
	}
	return *page
}

// DecodePage 存储值转页码
func DecodePage(v int) *int {
	if v == NoPage {
		return nil
	}
	return &v
}
