package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// 服务名，用于错误信息
const providerName = "llm"

// Client OpenAI 兼容的 Chat Completions 客户端（默认 OpenRouter）
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// 编译期检查
var _ domainRAG.Generator = (*Client)(nil)

// ChatRequest Chat API 请求
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse Chat API 响应
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient 创建 LLM 客户端
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.NewModuleLogger("llm", "client"),
	}
}

// NewClientFromConfig 按配置创建客户端
func NewClientFromConfig(cfg *config.LLMConfig) *Client {
	return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, time.Duration(cfg.TimeoutSecs)*time.Second)
}

// Model 模型名
func (c *Client) Model() string {
	return c.model
}

// Complete 发送消息序列并返回第一条回复
func (c *Client) Complete(ctx context.Context, messages []domainRAG.Message, opts domainRAG.GenerationOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", domainRAG.ErrEmptyInput)
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    make([]Message, len(messages)),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for i, msg := range messages {
		reqBody.Messages[i] = Message{Role: string(msg.Role), Content: msg.Content}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "http://localhost:3000")
	req.Header.Set("X-Title", "RAG Chatbot")

	c.logger.Debug("Sending LLM request",
		"url", url,
		"model", c.model,
		"messages", len(messages),
	)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &domainRAG.ProviderError{Provider: providerName, Transient: true, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Warn("LLM API returned error",
			"status_code", resp.StatusCode,
			"model", c.model,
		)
		return "", domainRAG.NewStatusError(providerName, resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode LLM response: %v", domainRAG.ErrMalformedResult, err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: LLM API returned no content", domainRAG.ErrMalformedResult)
	}

	c.logger.Info("LLM request successful",
		"model", c.model,
		"tokens", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return *chatResp.Choices[0].Message.Content, nil
}

// TestConnection 测试 LLM API 连接
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Complete(ctx, []domainRAG.Message{
		{Role: domainRAG.RoleUser, Content: "Reply with OK."},
	}, domainRAG.GenerationOptions{Temperature: 0, MaxTokens: 5})
	if err != nil {
		c.logger.Error("LLM connection test failed", "error", err)
		return err
	}
	c.logger.Info("LLM connection test successful", "model", c.model)
	return nil
}
