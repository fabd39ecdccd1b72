package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// EnvDataDir 数据目录环境变量名
	EnvDataDir = "RAG_DATA_DIR"
	// DefaultDataDirName 默认数据目录名（位于用户主目录下）
	DefaultDataDirName = ".chatbot-rag"
)

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// GetDataDir 数据根目录，存放 SQLite 索引、本地模型与监听状态
// RAG_DATA_DIR 优先，否则为 ~/.chatbot-rag，首次调用后缓存
func GetDataDir() string {
	dataDirOnce.Do(func() {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			dataDirPath = ExpandHome(dir)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			dataDirPath = DefaultDataDirName
			return
		}
		dataDirPath = filepath.Join(home, DefaultDataDirName)
	})
	return dataDirPath
}

// ResetDataDir 重置缓存（仅用于测试）
func ResetDataDir() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}

// ExpandHome 展开 ~ 或 ~/ 前缀，其他路径原样返回
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// expandPaths 展开配置中的本地路径
func (c *Config) expandPaths() {
	c.Vector.SQLitePath = ExpandHome(c.Vector.SQLitePath)
	c.Embedding.ModelDir = ExpandHome(c.Embedding.ModelDir)
	c.Ingest.WatchDir = ExpandHome(c.Ingest.WatchDir)
}
