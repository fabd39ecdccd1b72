package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 记录收到的文件事件
type recorder struct {
	mu     sync.Mutex
	events []*events.FileEvent
}

func (r *recorder) HandleEvent(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(*events.FileEvent))
	return nil
}

func (r *recorder) snapshot() []*events.FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*events.FileEvent(nil), r.events...)
}

func (r *recorder) count(eventType events.EventType, name string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.EventType == eventType && e.Name == name {
			n++
		}
	}
	return n
}

func onlyText(name string) bool {
	return strings.HasSuffix(name, ".txt")
}

func newTestWatcher(t *testing.T, dir string, state *ScanState) (*FileWatcher, *recorder) {
	t.Helper()

	bus := NewEventBus()
	t.Cleanup(bus.Close)

	rec := &recorder{}
	bus.Subscribe(rec, events.FileEventTypes...)

	config := WatchConfig{
		Dir:           dir,
		DebounceDelay: 100 * time.Millisecond,
		Accept:        onlyText,
	}
	fw, err := NewFileWatcher(config, bus, state)
	require.NoError(t, err)
	return fw, rec
}

func TestFileWatcher_Accepts(t *testing.T) {
	fw := &FileWatcher{config: WatchConfig{Accept: onlyText}}

	tests := []struct {
		name     string
		expected bool
	}{
		{"notes.txt", true},
		{"image.png", false},
		{".hidden.txt", false},
		{"~$draft.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fw.accepts(tt.name))
		})
	}
}

func TestFileWatcher_Disabled(t *testing.T) {
	fw, err := NewFileWatcher(WatchConfig{}, NewEventBus(), nil)
	require.NoError(t, err)

	assert.False(t, fw.Enabled())
	assert.NoError(t, fw.Start())
	fw.Stop()
}

func TestFileWatcher_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("existing document"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.png"), []byte("binary"), 0644))

	fw, rec := newTestWatcher(t, dir, nil)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	require.Eventually(t, func() bool {
		return rec.count(events.FileCreated, "a.txt") == 1
	}, time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, rec.count(events.FileCreated, "skip.png"))
}

func TestFileWatcher_ScanSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing document"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	state := NewScanState(filepath.Join(t.TempDir(), "state.json"))
	state.MarkScanned(dir, time.Now().Add(-time.Minute))

	fw, rec := newTestWatcher(t, dir, state)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestFileWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	fw, rec := newTestWatcher(t, dir, nil)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	// 等待监听就绪
	time.Sleep(50 * time.Millisecond)

	testFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("initial"), 0644))

	// 快速多次写入（应该被防抖合并）
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, os.WriteFile(testFile, []byte("update"), 0644))
	}

	// 等待防抖完成
	time.Sleep(400 * time.Millisecond)

	count := rec.count(events.FileCreated, "notes.txt") + rec.count(events.FileModified, "notes.txt")
	assert.GreaterOrEqual(t, count, 1)
	assert.LessOrEqual(t, count, 2, "events should be debounced")
}

func TestFileWatcher_Delete(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("to be removed"), 0644))

	fw, rec := newTestWatcher(t, dir, nil)
	require.NoError(t, fw.Start())
	defer fw.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.Remove(testFile))

	require.Eventually(t, func() bool {
		return rec.count(events.FileDeleted, "gone.txt") == 1
	}, time.Second, 20*time.Millisecond)
}

func TestScanState_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	state := NewScanState(path)
	assert.True(t, state.LastScan("/docs").IsZero())

	testTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	state.MarkScanned("/docs", testTime)

	loaded := NewScanState(path)
	assert.True(t, loaded.LastScan("/docs").Equal(testTime), "loaded time should match saved time")
	assert.True(t, loaded.LastScan("/other").IsZero())
}

func TestScanState_SaveFailureReported(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// 父路径是普通文件，无法创建目录
	state := NewScanState(filepath.Join(blocker, "sub", "state.json"))
	testTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	state.MarkScanned("/docs", testTime)

	assert.True(t, state.LastScan("/docs").Equal(testTime))
	err := state.save()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan state directory")
}

func TestScanState_CorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	state := NewScanState(path)
	assert.True(t, state.LastScan("/docs").IsZero())
}
