package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// Dir 监听目录，为空表示不启用
	Dir string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
	// Accept 过滤要处理的文件名，为空表示全部接受
	Accept func(name string) bool
	// FullRescan 启动时忽略扫描记录，重新入库全部文件（内存索引使用）
	FullRescan bool
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig(dir string) WatchConfig {
	return WatchConfig{
		Dir:           dir,
		DebounceDelay: 500 * time.Millisecond,
	}
}

// FileWatcher 文档目录监听器
// 文件创建与修改经防抖后发布 FileCreated/FileModified，删除与移出发布 FileDeleted
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	state    *ScanState
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFileWatcher 创建文件监听器，state 可为空
func NewFileWatcher(config WatchConfig, eventBus events.EventBus, state *ScanState) (*FileWatcher, error) {
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = 500 * time.Millisecond
	}
	if state == nil {
		state = NewScanState("")
	}

	fw := &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		state:          state,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}
	if config.Dir == "" {
		return fw, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw.watcher = watcher
	return fw, nil
}

// Enabled 是否配置了监听目录
func (fw *FileWatcher) Enabled() bool {
	return fw.watcher != nil
}

// Start 扫描已有文件并启动监听
func (fw *FileWatcher) Start() error {
	if !fw.Enabled() {
		return nil
	}

	if err := os.MkdirAll(fw.config.Dir, 0755); err != nil {
		return err
	}

	fw.logger.Info("Starting file watcher", "dir", fw.config.Dir)

	fw.performScan()

	if err := fw.watcher.Add(fw.config.Dir); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止文件监听
func (fw *FileWatcher) Stop() {
	if !fw.Enabled() {
		return
	}
	fw.logger.Info("Stopping file watcher")

	close(fw.stopCh)
	fw.watcher.Close()
	fw.wg.Wait()

	// 取消所有防抖定时器
	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceMu.Unlock()

	fw.logger.Info("File watcher stopped")
}

// performScan 发布上次扫描后修改过的文件
func (fw *FileWatcher) performScan() {
	startTime := time.Now()
	lastScan := fw.state.LastScan(fw.config.Dir)
	if fw.config.FullRescan {
		lastScan = time.Time{}
	}

	entries, err := os.ReadDir(fw.config.Dir)
	if err != nil {
		fw.logger.Error("Failed to read watch directory", "error", err)
		return
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !fw.accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().After(lastScan) {
			continue
		}

		fw.eventBus.Publish(&events.FileEvent{
			EventType: events.FileCreated,
			Path:      filepath.Join(fw.config.Dir, entry.Name()),
			Name:      entry.Name(),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
			EventTime: time.Now(),
		})
		count++
	}

	fw.state.MarkScanned(fw.config.Dir, startTime)

	fw.logger.Info("Watch directory scanned",
		"files", count,
		"last_scan", lastScan,
		"duration", time.Since(startTime),
	)
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !fw.accepts(name) {
		return
	}

	// 删除和重命名（移出目录）立即处理，并取消未触发的写入
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		fw.cancelDebounce(event.Name)
		fw.emit(events.FileDeleted, event.Name)
		return
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		fw.debounce(event)
	}
}

// debounce 同一文件在延迟内的多次写入合并为一次
func (fw *FileWatcher) debounce(fsEvent fsnotify.Event) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	eventType := events.FileModified
	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	} else if fsEvent.Has(fsnotify.Create) {
		eventType = events.FileCreated
	}

	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()

		fw.emit(eventType, fsEvent.Name)
	})
}

// cancelDebounce 取消文件的防抖定时器
func (fw *FileWatcher) cancelDebounce(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[path]; exists {
		timer.Stop()
		delete(fw.debounceTimers, path)
	}
}

// emit 发布文件事件
func (fw *FileWatcher) emit(eventType events.EventType, path string) {
	event := &events.FileEvent{
		EventType: eventType,
		Path:      path,
		Name:      filepath.Base(path),
		EventTime: time.Now(),
	}
	if eventType != events.FileDeleted {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		event.ModTime = info.ModTime()
		event.Size = info.Size()
	}

	fw.eventBus.Publish(event)

	fw.logger.Debug("File event emitted",
		"type", eventType,
		"name", event.Name,
	)
}

// accepts 忽略隐藏文件、Office 临时文件以及不支持的格式
func (fw *FileWatcher) accepts(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	return fw.config.Accept == nil || fw.config.Accept(name)
}
