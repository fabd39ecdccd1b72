package notification

import (
	"sync"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// DefaultEventLogSize 默认保留的事件数
const DefaultEventLogSize = 100

// EventLog 最近文档事件的环形缓冲
type EventLog struct {
	mu     sync.RWMutex
	events []*domainRAG.DocumentEvent
	next   int
	full   bool
}

// NewEventLog 创建容量为 size 的事件日志
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{events: make([]*domainRAG.DocumentEvent, size)}
}

// ProvideEventLog Wire 使用的默认事件日志
func ProvideEventLog() *EventLog {
	return NewEventLog(DefaultEventLogSize)
}

// Append 追加事件，超出容量时覆盖最旧的事件
func (l *EventLog) Append(event *domainRAG.DocumentEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events[l.next] = event
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
}

// Recent 最近的 limit 个事件，按时间从新到旧
func (l *EventLog) Recent(limit int) []*domainRAG.DocumentEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.next
	if l.full {
		size = len(l.events)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]*domainRAG.DocumentEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.events)) % len(l.events)
		result = append(result, l.events[idx])
	}
	return result
}
