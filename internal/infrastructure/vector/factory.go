package vector

import (
	"context"
	"fmt"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/storage"
)

// 连接外部向量库的超时
const connectTimeout = 30 * time.Second

// NewIndex 按配置创建向量索引，返回的 cleanup 用于释放连接
func NewIndex(cfg *config.VectorConfig) (domainRAG.VectorIndex, func(), error) {
	logger := log.NewModuleLogger("vector", "factory")

	switch cfg.Backend {
	case "memory":
		logger.Warn("Using in-memory vector index, data is lost on restart")
		return NewMemoryIndex(cfg.Collection), func() {}, nil

	case "sqlite", "":
		db, err := storage.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite vector index", "path", cfg.SQLitePath, "collection", cfg.Collection)
		return storage.NewChunkRepository(db, cfg.Collection), func() { _ = db.Close() }, nil

	case "qdrant":
		index, err := NewQdrantIndex(QdrantOptions{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := index.WaitForReady(ctx, connectTimeout); err != nil {
			_ = index.Close()
			return nil, nil, err
		}
		logger.Info("Using Qdrant vector index",
			"host", cfg.Qdrant.Host,
			"port", cfg.Qdrant.Port,
			"collection", cfg.Collection,
		)
		return index, func() { _ = index.Close() }, nil

	case "pgvector":
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		index, err := NewPgVectorIndex(ctx, cfg.Postgres.DSN, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using pgvector index", "collection", cfg.Collection)
		return index, func() { _ = index.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown vector backend: %s", cfg.Backend)
}
