package rag

import "time"

// DocumentEventType 文档事件类型
type DocumentEventType string

const (
	DocumentIngested  DocumentEventType = "document_ingested"
	DocumentDeleted   DocumentEventType = "document_deleted"
	CollectionCleared DocumentEventType = "collection_cleared"
)

// DocumentEvent 文档变更事件
type DocumentEvent struct {
	Type       DocumentEventType `json:"type"`
	DocumentID string            `json:"document_id,omitempty"`
	Filename   string            `json:"filename,omitempty"`
	NumChunks  int               `json:"num_chunks"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewDocumentEvent 创建事件
func NewDocumentEvent(eventType DocumentEventType, documentID, filename string, numChunks int) *DocumentEvent {
	return &DocumentEvent{
		Type:       eventType,
		DocumentID: documentID,
		Filename:   filename,
		NumChunks:  numChunks,
		Timestamp:  time.Now(),
	}
}
