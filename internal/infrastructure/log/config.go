package log

import (
	"os"
	"strconv"
	"strings"
)

// 日志相关环境变量
const (
	EnvLevel     = "LOG_LEVEL"
	EnvFormat    = "LOG_FORMAT"
	EnvOutput    = "LOG_OUTPUT"
	EnvAddSource = "LOG_ADD_SOURCE"
	// EnvMode 设为 development 时强制 debug 级别并输出源码位置
	EnvMode = "RAG_ENV"
)

// Config 日志配置，对应 config.yaml 的 log 段
type Config struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	// Format: console（彩色）, text, json
	Format string `yaml:"format" validate:"omitempty,oneof=console text json"`
	// Output: stdout, stderr, file:/path/to/log
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stdout"}
}

// NewConfigFromEnv 默认配置叠加环境变量
func NewConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return &cfg
}

// ApplyEnv 环境变量覆盖当前值，空值忽略
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvAddSource)); err == nil {
		c.AddSource = v
	}

	if strings.EqualFold(os.Getenv(EnvMode), "development") {
		c.Level = "debug"
		c.AddSource = true
	}
}
