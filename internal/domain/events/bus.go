package events

// Handler 事件处理器，返回的错误只记录日志
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 按 Key 保序的事件总线
// 同一 Key 的事件按发布顺序串行交付，不同 Key 并行处理
type EventBus interface {
	// Subscribe 订阅一组事件类型，返回取消订阅函数
	Subscribe(handler Handler, types ...EventType) (unsubscribe func())

	// Publish 入队，立即返回
	Publish(event Event)

	// Close 拒绝新事件，等待已入队的事件处理完
	Close()
}
