package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/notification"
	infraWS "github.com/axeltanjung/chatbot-rag/internal/infrastructure/websocket"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 心跳间隔
	pingInterval = 30 * time.Second
	// 超过该时间未收到 pong 则断开
	pongTimeout = 60 * time.Second
	// 单次写超时
	writeTimeout = 10 * time.Second
	// 最近事件默认条数
	defaultRecentEvents = 20
)

// EventsHandler 文档事件推送处理器
type EventsHandler struct {
	hub      *infraWS.Hub
	log      *notification.EventLog
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler 创建事件处理器
func NewEventsHandler(hub *infraWS.Hub, eventLog *notification.EventLog, cfg *config.Config) *EventsHandler {
	origins := cfg.Server.CORSOrigins
	return &EventsHandler{
		hub: hub,
		log: eventLog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
		logger: log.NewModuleLogger("http", "events"),
	}
}

// Stream 订阅文档事件（WebSocket）
// @Summary 订阅文档事件
// @Tags events
// @Router /api/events/ws [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", "error", err)
		return
	}

	sub := infraWS.NewConnection(infraWS.TopicDocuments)
	h.hub.Register(sub)
	h.logger.Debug("Event subscriber connected", "remote", c.Request.RemoteAddr)

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// readPump 只处理控制帧，连接断开后注销订阅
func (h *EventsHandler) readPump(conn *websocket.Conn, sub *infraWS.Connection) {
	defer func() {
		h.hub.Unregister(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Event subscriber read error", "error", err)
			}
			return
		}
	}
}

// writePump 转发 Hub 消息并定时发送 ping
func (h *EventsHandler) writePump(conn *websocket.Conn, sub *infraWS.Connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Hub 关闭了该连接
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Recent 最近的文档事件，按时间倒序
// @Summary 最近事件
// @Tags events
// @Produce json
// @Param limit query int false "条数"
// @Success 200 {array} domainRAG.DocumentEvent
// @Router /api/events/recent [get]
func (h *EventsHandler) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRecentEvents)))
	if err != nil || limit <= 0 {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid request", "limit must be a positive integer")
		return
	}
	response.Success(c, h.log.Recent(limit))
}
