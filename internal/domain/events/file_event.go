package events

import "time"

// FileEvent 监听目录中的文件变更事件
type FileEvent struct {
	EventType EventType
	// Path 文件完整路径
	Path string
	// Name 文件名，作为文档来源名
	Name      string
	ModTime   time.Time
	Size      int64
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *FileEvent) Type() EventType {
	return e.EventType
}

// Key 以文档来源名排序，同名文件的入库与删除不会交错
func (e *FileEvent) Key() string {
	return e.Name
}

// Timestamp 实现 Event 接口
func (e *FileEvent) Timestamp() time.Time {
	return e.EventTime
}
