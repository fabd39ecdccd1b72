package watcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// ScanState 记录每个监听目录的上次扫描时间
// 启动时只重新入库在此之后修改过的文件
type ScanState struct {
	mu       sync.RWMutex
	scans    map[string]time.Time
	filePath string
	logger   *slog.Logger
}

// NewScanState 从 filePath 加载扫描状态，文件不存在时为空
func NewScanState(filePath string) *ScanState {
	s := &ScanState{
		scans:    make(map[string]time.Time),
		filePath: filePath,
		logger:   log.NewModuleLogger("watcher", "scan_state"),
	}
	s.load()
	return s
}

// LastScan 目录的上次扫描时间，未扫描过时为零值
func (s *ScanState) LastScan(dir string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scans[dir]
}

// MarkScanned 记录扫描时间并持久化
func (s *ScanState) MarkScanned(dir string, t time.Time) {
	s.mu.Lock()
	s.scans[dir] = t
	s.mu.Unlock()

	if err := s.save(); err != nil {
		// 下次启动会重新入库全部文件
		s.logger.Warn("Failed to persist scan state",
			"path", s.filePath,
			"error", err,
		)
	}
}

// load 从文件加载
func (s *ScanState) load() {
	if s.filePath == "" {
		return
	}
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read scan state", "path", s.filePath, "error", err)
		}
		return
	}

	var scans map[string]time.Time
	if err := json.Unmarshal(data, &scans); err != nil {
		s.logger.Warn("Ignoring corrupt scan state", "path", s.filePath, "error", err)
		return
	}

	s.mu.Lock()
	for dir, t := range scans {
		s.scans[dir] = t
	}
	s.mu.Unlock()
}

// save 写回文件
func (s *ScanState) save() error {
	if s.filePath == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.scans, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal scan state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create scan state directory: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write scan state: %w", err)
	}
	return nil
}
