package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// 服务名，用于错误信息
const providerName = "embedding"

// OpenRouter 要求的来源标识
const (
	HeaderReferer = "HTTP-Referer"
	HeaderTitle   = "X-Title"
	appReferer    = "http://localhost:3000"
	appTitle      = "RAG Chatbot"
)

// Client OpenAI 兼容的 Embedding API 客户端（默认 OpenRouter）
// 自身不重试，重试由调用方的策略决定
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(baseURL, apiKey, model string, dimension int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		// 规范化 baseURL：移除末尾斜杠
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.NewModuleLogger("embedding", "client"),
	}
}

// buildEmbeddingURL 构建 Embedding API URL
// 支持多种输入格式，智能拼接 /embeddings 路径
func buildEmbeddingURL(baseURL string) string {
	// 1. 已经是完整路径，直接使用
	if strings.HasSuffix(baseURL, "/embeddings") {
		return baseURL
	}

	// 2. 以 /v1 结尾（含 OpenRouter 的 /api/v1），只追加 /embeddings
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/embeddings"
	}

	// 3. 其他情况，追加完整的 /v1/embeddings
	return fmt.Sprintf("%s/v1/embeddings", baseURL)
}

// EmbeddingRequest Embedding 请求
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse Embedding 响应
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed 单条文本向量化
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 批量向量化，返回顺序与输入一致
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", domainRAG.ErrEmptyInput)
	}

	jsonData, err := json.Marshal(EmbeddingRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := buildEmbeddingURL(c.baseURL)
	c.logger.Debug("Sending embedding request",
		"url", url,
		"batch_size", len(texts),
		"model", c.model,
		"api_key", maskAPIKey(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domainRAG.ProviderError{Provider: providerName, Transient: true, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// 响应体只记录长度，避免泄露请求内容
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Embedding API returned error",
			"status_code", resp.StatusCode,
			"body_bytes", len(body),
		)
		return nil, domainRAG.NewStatusError(providerName, resp.StatusCode)
	}

	var embeddingResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode embedding response: %v", domainRAG.ErrMalformedResult, err)
	}

	vectors, err := orderVectors(&embeddingResp, len(texts))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Embedding request completed",
		"vectors", len(vectors),
		"total_tokens", embeddingResp.Usage.TotalTokens,
	)
	return vectors, nil
}

// orderVectors 按 index 字段还原输入顺序并校验数量
func orderVectors(resp *EmbeddingResponse, expected int) ([][]float32, error) {
	if len(resp.Data) != expected {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domainRAG.ErrMalformedResult, len(resp.Data), expected)
	}
	vectors := make([][]float32, expected)
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= expected || vectors[data.Index] != nil {
			return nil, fmt.Errorf("%w: invalid embedding index %d", domainRAG.ErrMalformedResult, data.Index)
		}
		if len(data.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", domainRAG.ErrMalformedResult, data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

// Info 模型信息
func (c *Client) Info() domainRAG.EmbeddingInfo {
	return domainRAG.EmbeddingInfo{
		Provider:  "openai",
		Model:     c.model,
		Dimension: c.dimension,
	}
}

// ProbeDimension 通过测试请求获取向量维度
func (c *Client) ProbeDimension(ctx context.Context) (int, error) {
	vector, err := c.Embed(ctx, "test")
	if err != nil {
		return 0, err
	}
	c.dimension = len(vector)
	return c.dimension, nil
}

// TestConnection 测试连接
func (c *Client) TestConnection(ctx context.Context) error {
	c.logger.Info("Testing embedding API connection",
		"base_url", c.baseURL,
		"model", c.model,
	)

	dimension, err := c.ProbeDimension(ctx)
	if err != nil {
		var providerErr *domainRAG.ProviderError
		if errors.As(err, &providerErr) {
			c.logger.Error("Embedding API connection test failed", "status_code", providerErr.StatusCode)
		}
		return err
	}

	c.logger.Info("Embedding API connection test successful",
		"vector_dimension", dimension,
	)
	return nil
}

// setHeaders 设置鉴权与 OpenRouter 来源头
func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set(HeaderReferer, appReferer)
	req.Header.Set(HeaderTitle, appTitle)
}

// maskAPIKey API Key 脱敏
func maskAPIKey(apiKey string) string {
	if len(apiKey) > 8 {
		return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
	}
	return "***"
}
