package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// 单个文件入库的超时
const ingestTimeout = 5 * time.Minute

// DocumentIngestor 文件入库接口
type DocumentIngestor interface {
	IngestFile(ctx context.Context, filename string, data []byte) (*domainRAG.IngestResult, error)
	DeleteDocument(ctx context.Context, filename string) (int, error)
}

// FolderIngestor 将文件事件转换为入库或删除
type FolderIngestor struct {
	ingestor DocumentIngestor
	maxBytes int64
	logger   *slog.Logger
}

// NewFolderIngestor 创建处理器，maxBytes <= 0 表示不限制大小
func NewFolderIngestor(ingestor DocumentIngestor, maxBytes int64) *FolderIngestor {
	return &FolderIngestor{
		ingestor: ingestor,
		maxBytes: maxBytes,
		logger:   log.NewModuleLogger("watcher", "ingestor"),
	}
}

// HandleEvent 实现 events.Handler 接口
func (h *FolderIngestor) HandleEvent(event events.Event) error {
	fileEvent, ok := event.(*events.FileEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	switch fileEvent.EventType {
	case events.FileCreated, events.FileModified:
		return h.ingest(ctx, fileEvent)
	case events.FileDeleted:
		return h.remove(ctx, fileEvent)
	}
	return nil
}

// ingest 读取文件并入库
func (h *FolderIngestor) ingest(ctx context.Context, event *events.FileEvent) error {
	if h.maxBytes > 0 && event.Size > h.maxBytes {
		h.logger.Warn("Skipping file larger than upload limit",
			"name", event.Name,
			"size", event.Size,
			"limit", h.maxBytes,
		)
		return nil
	}

	data, err := os.ReadFile(event.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", event.Name, err)
	}

	result, err := h.ingestor.IngestFile(ctx, event.Name, data)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", event.Name, err)
	}

	h.logger.Info("Watched file ingested",
		"name", event.Name,
		"chunks", result.NumChunks,
	)
	return nil
}

// remove 删除文档，文档不存在时忽略
func (h *FolderIngestor) remove(ctx context.Context, event *events.FileEvent) error {
	deleted, err := h.ingestor.DeleteDocument(ctx, event.Name)
	if errors.Is(err, domainRAG.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", event.Name, err)
	}

	h.logger.Info("Watched file removed", "name", event.Name, "chunks", deleted)
	return nil
}
