package rag

import (
	"fmt"
	"strings"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// InsufficientContextAnswer 上下文不足时模型应回复的固定句子
const InsufficientContextAnswer = "I don't have enough information in the provided documents to answer this question."

// systemPromptTemplate 系统提示词，%s 处填入检索到的上下文
const systemPromptTemplate = `You are a helpful AI assistant that answers questions based ONLY on the provided context.

STRICT RULES:
1. You MUST base your answer exclusively on the context provided below
2. If the context does not contain enough information to answer the question, respond with: "` + InsufficientContextAnswer + `"
3. NEVER use outside knowledge or make assumptions beyond what's in the context
4. Always cite which source(s) you used to formulate your answer
5. Be concise but comprehensive
6. If you're uncertain, acknowledge it

Context:
%s

Remember: Accuracy and honesty are more important than providing an answer.`

// unknownSource 缺少来源时的显示名
const unknownSource = "Unknown"

// PromptAssembler 组装带上下文的提示词
type PromptAssembler struct{}

// NewPromptAssembler 创建提示词组装器
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// Build 生成发送给模型的消息序列：system（含上下文）+ 历史 + 当前问题
// 上下文顺序与传入顺序一致，不做重排或去重
func (p *PromptAssembler) Build(query string, contexts []*domainRAG.RetrievedResult, history []domainRAG.Message) []domainRAG.Message {
	messages := make([]domainRAG.Message, 0, len(history)+2)
	messages = append(messages, domainRAG.Message{
		Role:    domainRAG.RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, p.renderContext(contexts)),
	})
	messages = append(messages, history...)
	messages = append(messages, domainRAG.Message{
		Role:    domainRAG.RoleUser,
		Content: query,
	})
	return messages
}

// renderContext 渲染编号的上下文段落
func (p *PromptAssembler) renderContext(contexts []*domainRAG.RetrievedResult) string {
	parts := make([]string, 0, len(contexts))
	for i, ctx := range contexts {
		source := ctx.Metadata.Source
		if source == "" {
			source = unknownSource
		}
		pageInfo := ""
		if ctx.Metadata.Page != nil && *ctx.Metadata.Page != 0 {
			pageInfo = fmt.Sprintf(", Page %d", *ctx.Metadata.Page)
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s%s]\n%s", i+1, source, pageInfo, ctx.Text))
	}
	return strings.Join(parts, "\n\n")
}

// Transcript 将消息序列渲染为可读文本，仅用于调试展示
func (p *PromptAssembler) Transcript(messages []domainRAG.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToUpper(string(msg.Role))
		if role == "" {
			role = "UNKNOWN"
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s\n", role, msg.Content))
	}
	return strings.Join(parts, "\n")
}
