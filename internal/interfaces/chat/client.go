package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// Client 问答 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端，baseURL 形如 http://localhost:8000
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL 服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

type chatRequest struct {
	Query       string              `json:"query"`
	ChatHistory []domainRAG.Message `json:"chat_history"`
	TopK        int                 `json:"top_k,omitempty"`
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Ask 发送问题与历史
func (c *Client) Ask(ctx context.Context, query string, history []domainRAG.Message, topK int, developerMode bool) (*domainRAG.ChatAnswer, error) {
	body, err := json.Marshal(chatRequest{Query: query, ChatHistory: history, TopK: topK})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/chat/"
	if developerMode {
		url += "?developer_mode=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var answer domainRAG.ChatAnswer
	if err := c.do(req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// Documents 已索引文档
func (c *Client) Documents(ctx context.Context) ([]*domainRAG.DocumentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/documents/", nil)
	if err != nil {
		return nil, err
	}
	var docs []*domainRAG.DocumentInfo
	if err := c.do(req, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// do 执行请求并解码 JSON，非 200 时返回服务端错误信息
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e errorBody
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || (e.Error == "" && e.Detail == "") {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		if e.Detail != "" {
			return errors.New(e.Detail)
		}
		return errors.New(e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
