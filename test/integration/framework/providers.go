//go:build integration
// +build integration

// FakeProviders 模拟 OpenAI 兼容的 Embedding 与 Chat Completions 接口
package framework

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// FakeDimension 模拟向量维度
const FakeDimension = 32

// FakeAnswer 模拟模型的固定回复
const FakeAnswer = "The answer is in the provided context."

// FakeProviders 本地模拟的模型服务
type FakeProviders struct {
	server *httptest.Server

	embedCalls atomic.Int64
	chatCalls  atomic.Int64

	mu         sync.Mutex
	chatStatus int
	lastPrompt []ChatMessage
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// ChatMessage Chat 请求中的消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// NewFakeProviders 启动模拟服务
func NewFakeProviders() *FakeProviders {
	p := &FakeProviders{chatStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", p.handleEmbeddings)
	mux.HandleFunc("/v1/chat/completions", p.handleChat)
	p.server = httptest.NewServer(mux)
	return p
}

// BaseURL OpenAI 兼容的 base url（以 /v1 结尾）
func (p *FakeProviders) BaseURL() string {
	return p.server.URL + "/v1"
}

// Close 关闭模拟服务
func (p *FakeProviders) Close() {
	p.server.Close()
}

// EmbedCalls Embedding 接口调用次数
func (p *FakeProviders) EmbedCalls() int64 { return p.embedCalls.Load() }

// ChatCalls Chat 接口调用次数
func (p *FakeProviders) ChatCalls() int64 { return p.chatCalls.Load() }

// SetChatStatus 设置 Chat 接口返回的状态码
func (p *FakeProviders) SetChatStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatStatus = status
}

// LastPrompt 最近一次 Chat 请求的消息序列
func (p *FakeProviders) LastPrompt() []ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChatMessage(nil), p.lastPrompt...)
}

func (p *FakeProviders) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	p.embedCalls.Add(1)
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data := make([]embeddingData, len(req.Input))
	for i, text := range req.Input {
		data[i] = embeddingData{Index: i, Embedding: HashVector(text)}
	}
	writeJSON(w, map[string]any{"object": "list", "data": data, "model": req.Model})
}

func (p *FakeProviders) handleChat(w http.ResponseWriter, r *http.Request) {
	p.chatCalls.Add(1)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	status := p.chatStatus
	p.lastPrompt = req.Messages
	p.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, `{"error":"unavailable"}`, status)
		return
	}
	content := FakeAnswer
	writeJSON(w, map[string]any{
		"id":    "fake",
		"model": req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

// HashVector 词袋哈希向量，共享词越多相似度越高
func HashVector(text string) []float32 {
	vec := make([]float32, FakeDimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,;:!?\"'()")))
		vec[h.Sum32()%FakeDimension]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
