package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// 检索数量上限
const maxTopK = 20

// HistoryMessage 对话历史
type HistoryMessage struct {
	Role    string `json:"role" jsonschema:"user or assistant"`
	Content string `json:"content" jsonschema:"Message text"`
}

// AskDocumentsInput 问答工具输入
type AskDocumentsInput struct {
	Question    string           `json:"question" jsonschema:"Question in natural language (required)"`
	TopK        int              `json:"top_k,omitempty" jsonschema:"Number of chunks to retrieve, defaults to 5, max 20"`
	ChatHistory []HistoryMessage `json:"chat_history,omitempty" jsonschema:"Previous conversation turns"`
}

// AskDocumentsOutput 问答工具输出
type AskDocumentsOutput struct {
	Answer     string          `json:"answer" jsonschema:"Answer grounded in the documents"`
	Confidence float64         `json:"confidence" jsonschema:"Confidence score between 0 and 1"`
	Sources    []*SourceResult `json:"sources" jsonschema:"Cited chunks"`
}

// SearchDocumentsInput 检索工具输入
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"Search query (required)"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of chunks, defaults to 5, max 20"`
}

// SearchDocumentsOutput 检索工具输出
type SearchDocumentsOutput struct {
	Results    []*SourceResult `json:"results" jsonschema:"Ranked chunks"`
	TotalCount int             `json:"total_count" jsonschema:"Number of chunks returned"`
}

// SourceResult 引用片段（精简版）
type SourceResult struct {
	Source    string  `json:"source" jsonschema:"File name"`
	Page      *int    `json:"page,omitempty" jsonschema:"Page number for paged documents"`
	Text      string  `json:"text" jsonschema:"Chunk preview"`
	Score     float64 `json:"score" jsonschema:"Similarity score"`
	Relevance string  `json:"relevance" jsonschema:"Relevance level: high/medium/low"`
}

// ListDocumentsInput 文档列表工具输入（空输入）
type ListDocumentsInput struct{}

// ListDocumentsOutput 文档列表工具输出
type ListDocumentsOutput struct {
	Documents  []*DocumentResult `json:"documents" jsonschema:"Indexed documents"`
	TotalCount int               `json:"total_count" jsonschema:"Number of documents"`
}

// DocumentResult 文档信息
type DocumentResult struct {
	Filename  string `json:"filename" jsonschema:"File name"`
	NumChunks int    `json:"num_chunks" jsonschema:"Number of indexed chunks"`
	CreatedAt string `json:"created_at" jsonschema:"Index time in RFC 3339"`
}

// askDocumentsTool 问答工具实现
func (s *MCPServer) askDocumentsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AskDocumentsInput,
) (*mcp.CallToolResult, AskDocumentsOutput, error) {
	output := AskDocumentsOutput{Sources: []*SourceResult{}}

	if strings.TrimSpace(input.Question) == "" {
		return nil, output, fmt.Errorf("question is required")
	}
	history, err := convertHistory(input.ChatHistory)
	if err != nil {
		return nil, output, err
	}

	ctx = log.WithClient(ctx, "mcp")
	answer, err := s.answerer.Answer(ctx, &appRAG.AnswerRequest{
		Query:   input.Question,
		History: history,
		TopK:    clampTopK(input.TopK),
	})
	if err != nil {
		s.logger.Error("ask_documents failed", "error", err)
		return nil, output, fmt.Errorf("failed to answer: %w", err)
	}

	output.Answer = answer.Answer
	output.Confidence = answer.Confidence
	output.Sources = toSourceResults(answer.Sources)
	return nil, output, nil
}

// searchDocumentsTool 检索工具实现
func (s *MCPServer) searchDocumentsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	output := SearchDocumentsOutput{Results: []*SourceResult{}}

	if strings.TrimSpace(input.Query) == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	ctx = log.WithClient(ctx, "mcp")
	sources, err := s.answerer.Search(ctx, input.Query, clampTopK(input.TopK))
	if err != nil {
		s.logger.Error("search_documents failed", "error", err)
		return nil, output, fmt.Errorf("search failed: %w", err)
	}

	output.Results = toSourceResults(sources)
	output.TotalCount = len(output.Results)
	return nil, output, nil
}

// listDocumentsTool 文档列表工具实现
func (s *MCPServer) listDocumentsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	output := ListDocumentsOutput{Documents: []*DocumentResult{}}

	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		return nil, output, fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		output.Documents = append(output.Documents, &DocumentResult{
			Filename:  doc.Filename,
			NumChunks: doc.NumChunks,
			CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		})
	}
	output.TotalCount = len(output.Documents)
	return nil, output, nil
}

// convertHistory 校验并转换对话历史
func convertHistory(history []HistoryMessage) ([]domainRAG.Message, error) {
	messages := make([]domainRAG.Message, 0, len(history))
	for i, msg := range history {
		role := domainRAG.Role(msg.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("chat_history[%d]: invalid role %q", i, msg.Role)
		}
		messages = append(messages, domainRAG.Message{Role: role, Content: msg.Content})
	}
	return messages, nil
}

// clampTopK 0 表示使用默认值，超出上限时截断
func clampTopK(topK int) int {
	if topK < 0 {
		return 0
	}
	return min(topK, maxTopK)
}

// toSourceResults 转换引用片段
func toSourceResults(sources []*domainRAG.Source) []*SourceResult {
	results := make([]*SourceResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, &SourceResult{
			Source:    src.Source,
			Page:      src.Page,
			Text:      src.Text,
			Score:     src.SimilarityScore,
			Relevance: scoreToRelevance(src.SimilarityScore),
		})
	}
	return results
}

// scoreToRelevance 将分数转换为相关性等级
func scoreToRelevance(score float64) string {
	if score >= 0.7 {
		return "high"
	}
	if score >= 0.4 {
		return "medium"
	}
	return "low"
}
