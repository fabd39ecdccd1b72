// Package watcher 监听文档目录并自动入库
package watcher

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// subscription 一个订阅
type subscription struct {
	id      uint64
	handler events.Handler
	types   []events.EventType
}

// OrderedBus 每个 Key 一个待处理队列，由单个 goroutine 依次交付
// 队尾与新事件类型相同时合并为新事件，避免连续写入重复入库
type OrderedBus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID uint64
	// queues 存在即表示该 Key 有 goroutine 正在处理
	queues map[string][]events.Event
	closed bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewEventBus 创建事件总线
func NewEventBus() *OrderedBus {
	return &OrderedBus{
		queues: make(map[string][]events.Event),
		logger: log.NewModuleLogger("watcher", "event_bus"),
	}
}

// Subscribe 订阅一组事件类型
func (b *OrderedBus) Subscribe(handler events.Handler, types ...events.EventType) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler, types: slices.Clone(types)})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *OrderedBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
}

// Publish 入队并在需要时启动该 Key 的处理 goroutine
func (b *OrderedBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	key := event.Key()
	queue, running := b.queues[key]
	if n := len(queue); n > 0 && queue[n-1].Type() == event.Type() {
		queue[n-1] = event
		b.logger.Debug("Event coalesced", "type", event.Type(), "key", key)
		return
	}
	b.queues[key] = append(queue, event)

	if !running {
		b.wg.Add(1)
		go b.drain(key)
	}
}

// Pending 尚未交付的事件数
func (b *OrderedBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, q := range b.queues {
		n += len(q)
	}
	return n
}

// drain 依次交付队列中的事件，队列为空时退出
func (b *OrderedBus) drain(key string) {
	defer b.wg.Done()

	for {
		b.mu.Lock()
		queue := b.queues[key]
		if len(queue) == 0 {
			delete(b.queues, key)
			b.mu.Unlock()
			return
		}
		event := queue[0]
		b.queues[key] = queue[1:]
		handlers := b.handlersFor(event.Type())
		b.mu.Unlock()

		for _, h := range handlers {
			b.dispatch(event, h)
		}
	}
}

// handlersFor 调用方持有锁
func (b *OrderedBus) handlersFor(eventType events.EventType) []events.Handler {
	var handlers []events.Handler
	for _, s := range b.subs {
		if slices.Contains(s.types, eventType) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

// dispatch 单个处理器 panic 不影响后续事件
func (b *OrderedBus) dispatch(event events.Event, handler events.Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				"type", event.Type(),
				"key", event.Key(),
				"panic", r,
			)
		}
	}()

	if err := handler.HandleEvent(event); err != nil {
		b.logger.Error("Handler returned error",
			"type", event.Type(),
			"key", event.Key(),
			"error", err,
		)
	}
}

// Close 拒绝新事件并等待队列清空
func (b *OrderedBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Event bus closed")
}
