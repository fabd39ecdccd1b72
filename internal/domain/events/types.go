// Package events 定义监听目录产生的领域事件
package events

import "time"

// EventType 事件类型标识
type EventType string

const (
	// FileCreated 文件创建
	FileCreated EventType = "watch.file.created"
	// FileModified 文件修改
	FileModified EventType = "watch.file.modified"
	// FileDeleted 文件删除或移出目录
	FileDeleted EventType = "watch.file.deleted"
)

// FileEventTypes 全部文件事件类型
var FileEventTypes = []EventType{FileCreated, FileModified, FileDeleted}

// Event 领域事件
type Event interface {
	Type() EventType
	// Key 排序键，同一 Key 的事件不会并发处理
	Key() string
	Timestamp() time.Time
}
