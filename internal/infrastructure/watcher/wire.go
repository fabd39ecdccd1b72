package watcher

import (
	"path/filepath"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideFileWatcher 按配置创建目录监听器，并订阅入库处理器
// 未配置 watch_dir 时返回未启用的监听器
func ProvideFileWatcher(
	cfg *config.Config,
	eventBus events.EventBus,
	ingestor DocumentIngestor,
	extractor domainRAG.TextExtractor,
) (*FileWatcher, error) {
	watchConfig := DefaultWatchConfig(cfg.Ingest.WatchDir)
	watchConfig.Accept = extractor.Supports
	watchConfig.FullRescan = cfg.Vector.Backend == "memory"

	state := NewScanState(filepath.Join(config.GetDataDir(), "watch_state.json"))
	fw, err := NewFileWatcher(watchConfig, eventBus, state)
	if err != nil {
		return nil, err
	}

	if fw.Enabled() {
		eventBus.Subscribe(NewFolderIngestor(ingestor, cfg.Ingest.MaxUploadBytes), events.FileEventTypes...)
	}
	return fw, nil
}

// ProviderSet 监听器 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideFileWatcher,
)
