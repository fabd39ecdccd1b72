package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// TopicDocuments 文档变更事件主题
const TopicDocuments = "documents"

// 每个连接的发送缓冲
const sendBufferSize = 64

// Hub WebSocket 连接管理中心，按主题分组广播
type Hub struct {
	topics     map[string]map[*Connection]bool
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	logger     *slog.Logger
}

// Connection 一个订阅连接
type Connection struct {
	Topic string
	Send  chan []byte
}

// NewConnection 创建订阅 topic 的连接
func NewConnection(topic string) *Connection {
	return &Connection{Topic: topic, Send: make(chan []byte, sendBufferSize)}
}

// Message 待广播的消息
type Message struct {
	Topic string
	Data  []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     log.NewModuleLogger("websocket", "hub"),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行），Stop 后返回
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.topics[conn.Topic] == nil {
				h.topics[conn.Topic] = make(map[*Connection]bool)
			}
			h.topics[conn.Topic][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.topics[msg.Topic] {
				select {
				case conn.Send <- msg.Data:
				default:
					// 消费过慢的连接直接断开
					h.logger.Warn("Dropping slow websocket subscriber", "topic", msg.Topic)
					h.remove(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove 移除连接并关闭发送通道，调用方持有写锁
func (h *Hub) remove(conn *Connection) {
	topic, ok := h.topics[conn.Topic]
	if !ok {
		return
	}
	if _, ok := topic[conn]; !ok {
		return
	}
	delete(topic, conn)
	close(conn.Send)
	if len(topic) == 0 {
		delete(h.topics, conn.Topic)
	}
}

// closeAll 关闭全部连接
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range h.topics {
		for conn := range topic {
			h.remove(conn)
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub 并关闭全部连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Subscribers 主题当前的连接数
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast 向主题广播 JSON 消息
func (h *Hub) Broadcast(topic string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &Message{Topic: topic, Data: jsonData}:
	case <-h.done:
	}
	return nil
}
