//go:build integration
// +build integration

// 问答链路：检索、生成、开发者模式与错误映射

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/test/integration/framework"
)

func TestChat_EmptyIndexSkipsGeneration(t *testing.T) {
	_, providers, client := startServer(t, framework.WithBackend("memory"))

	resp, err := client.Chat("How many vacation days?", nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "I don't have any documents indexed yet. Please upload some documents first.", resp.Data.Answer)
	assert.Empty(t, resp.Data.Sources)
	assert.Zero(t, resp.Data.Confidence)
	assert.Zero(t, providers.ChatCalls())
}

func TestChat_AnswerWithSources(t *testing.T) {
	_, providers, client := startServer(t)

	_, err := client.Upload("handbook.txt", []byte(handbook))
	require.NoError(t, err)

	history := []domainRAG.Message{
		{Role: domainRAG.RoleUser, Content: "Hi"},
		{Role: domainRAG.RoleAssistant, Content: "Hello, how can I help?"},
	}
	topK := 2
	resp, err := client.Chat("How many vacation days do employees accrue per year?", history, &topK, false)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status, resp.Error.Detail)

	assert.Equal(t, framework.FakeAnswer, resp.Data.Answer)
	require.Len(t, resp.Data.Sources, 2)
	assert.Equal(t, "handbook.txt", resp.Data.Sources[0].Source)
	assert.Contains(t, strings.ToLower(resp.Data.Sources[0].Text), "vacation")
	assert.GreaterOrEqual(t, resp.Data.Sources[0].SimilarityScore, resp.Data.Sources[1].SimilarityScore)
	assert.Greater(t, resp.Data.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Data.Confidence, 1.0)
	assert.Nil(t, resp.Data.PromptUsed)
	assert.Equal(t, int64(1), providers.ChatCalls())

	// 历史消息与检索内容都进入提示词
	var prompt strings.Builder
	for _, m := range providers.LastPrompt() {
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	assert.Contains(t, prompt.String(), "Hello, how can I help?")
	assert.Contains(t, prompt.String(), "twenty vacation days")
}

func TestChat_DeveloperModeIncludesPrompt(t *testing.T) {
	_, _, client := startServer(t)
	_, err := client.Upload("handbook.txt", []byte(handbook))
	require.NoError(t, err)

	resp, err := client.Chat("When is remote work allowed?", nil, nil, true)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, resp.Data.PromptUsed)
	assert.Contains(t, *resp.Data.PromptUsed, "When is remote work allowed?")
	assert.Greater(t, resp.Data.PromptTokens, 0)
}

func TestChat_Validation(t *testing.T) {
	_, _, client := startServer(t, framework.WithBackend("memory"))

	empty, err := client.Chat("   ", nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, empty.Status)

	tooMany := 21
	resp, err := client.Chat("question", nil, &tooMany, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "top_k must be between 1 and 20", resp.Error.Detail)
}

func TestChat_GenerationUnavailable(t *testing.T) {
	_, providers, client := startServer(t)
	_, err := client.Upload("handbook.txt", []byte(handbook))
	require.NoError(t, err)

	providers.SetChatStatus(http.StatusServiceUnavailable)

	resp, err := client.Chat("How many vacation days?", nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "Generation service unavailable", resp.Error.Detail)
	// 可重试错误按策略重试
	assert.Equal(t, int64(2), providers.ChatCalls())
}

func TestSearch_RetrievalOnly(t *testing.T) {
	_, providers, client := startServer(t)
	_, err := client.Upload("handbook.txt", []byte(handbook))
	require.NoError(t, err)

	topK := 1
	resp, err := client.Search("coffee machine cleaned Thursday", &topK)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, 1, resp.Data.Count)
	assert.Contains(t, resp.Data.Results[0].Text, "coffee")
	assert.Zero(t, providers.ChatCalls())
}
