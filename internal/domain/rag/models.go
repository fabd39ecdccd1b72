package rag

import "time"

// Role 对话角色
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message 一条对话消息
type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// RetrievedResult 一次相似度查询的单条结果，仅在当前查询内有效
type RetrievedResult struct {
	ChunkID         string
	Text            string
	Metadata        ChunkMetadata
	SimilarityScore float64
}

// Source 返回给调用方的引用片段
type Source struct {
	ChunkID         string  `json:"chunk_id"`
	Text            string  `json:"text"`
	Source          string  `json:"source"`
	Page            *int    `json:"page"`
	SimilarityScore float64 `json:"similarity_score"`
}

// ChatAnswer 问答结果
type ChatAnswer struct {
	Answer       string    `json:"answer"`
	Sources      []*Source `json:"sources"`
	Confidence   float64   `json:"confidence"`
	PromptUsed   *string   `json:"prompt_used,omitempty"`
	PromptTokens int       `json:"prompt_tokens,omitempty"`
}

// GenerationOptions 生成参数
type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
}

// DocumentInfo 已索引文档信息
type DocumentInfo struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	NumChunks  int       `json:"num_chunks"`
	CreatedAt  time.Time `json:"created_at"`
}

// IngestResult 文档入库结果
type IngestResult struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	NumChunks   int    `json:"num_chunks"`
	TotalTokens int    `json:"total_tokens,omitempty"`
	Message     string `json:"message"`
}

// CollectionInfo 向量集合统计
type CollectionInfo struct {
	Backend          string `json:"backend"`
	CollectionName   string `json:"collection_name"`
	TotalChunks      int    `json:"total_chunks"`
	TotalDocuments   int    `json:"total_documents"`
	SimilarityMetric string `json:"similarity_metric"`
}

// EmbeddingInfo Embedding 模型信息
type EmbeddingInfo struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// ExtractedDocument 从文件中提取出的纯文本
type ExtractedDocument struct {
	Text    string
	PageMap PageMap
}
