//go:build integration
// +build integration

// APIClient 基于 resty 封装的 HTTP 客户端，直接复用业务结构体
package framework

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/handler"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/response"
	"github.com/go-resty/resty/v2"
)

// APIClient 测试用 HTTP 客户端
type APIClient struct {
	client *resty.Client
}

// NewAPIClient 创建测试用 HTTP 客户端
func NewAPIClient(baseURL string) *APIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	return &APIClient{client: client}
}

// Result 响应结果：成功时 Data 有值，失败时 Error 有值
type Result[T any] struct {
	Status int
	Data   T
	Error  response.ErrorResponse
}

// do 执行请求，按状态码分别解析成功与错误响应
func do[T any](r *resty.Request, method, url string) (*Result[T], error) {
	var result Result[T]
	resp, err := r.SetResult(&result.Data).SetError(&result.Error).Execute(method, url)
	if err != nil {
		return nil, err
	}
	result.Status = resp.StatusCode()
	return &result, nil
}

// HealthCheck 健康检查
func (c *APIClient) HealthCheck() error {
	resp, err := c.client.R().Get("/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode())
	}
	return nil
}

// --- 文档管理 ---

// Upload 上传文档
func (c *APIClient) Upload(filename string, content []byte) (*Result[domainRAG.IngestResult], error) {
	r := c.client.R().SetFileReader("file", filename, bytes.NewReader(content))
	return do[domainRAG.IngestResult](r, resty.MethodPost, "/api/documents/upload")
}

// ListDocuments 文档列表
func (c *APIClient) ListDocuments() (*Result[[]domainRAG.DocumentInfo], error) {
	return do[[]domainRAG.DocumentInfo](c.client.R(), resty.MethodGet, "/api/documents/")
}

// Info 集合信息
func (c *APIClient) Info() (*Result[handler.InfoResponse], error) {
	return do[handler.InfoResponse](c.client.R(), resty.MethodGet, "/api/documents/info")
}

// DeleteDocument 删除文档
func (c *APIClient) DeleteDocument(filename string) (*Result[handler.DeleteResponse], error) {
	r := c.client.R().SetPathParam("filename", filename)
	return do[handler.DeleteResponse](r, resty.MethodDelete, "/api/documents/{filename}")
}

// Clear 清空集合
func (c *APIClient) Clear() (*Result[response.MessageResponse], error) {
	return do[response.MessageResponse](c.client.R(), resty.MethodDelete, "/api/documents/")
}

// --- 问答 ---

// Chat 提问
func (c *APIClient) Chat(query string, history []domainRAG.Message, topK *int, developerMode bool) (*Result[domainRAG.ChatAnswer], error) {
	r := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(handler.ChatRequest{Query: query, ChatHistory: history, TopK: topK})
	if developerMode {
		r.SetQueryParam("developer_mode", strconv.FormatBool(true))
	}
	return do[domainRAG.ChatAnswer](r, resty.MethodPost, "/api/chat/")
}

// Search 仅检索
func (c *APIClient) Search(query string, topK *int) (*Result[handler.SearchResponse], error) {
	r := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(handler.SearchRequest{Query: query, TopK: topK})
	return do[handler.SearchResponse](r, resty.MethodPost, "/api/chat/search")
}
