package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// 配置文件路径环境变量
const EnvConfigPath = "RAG_CONFIG"

// DefaultConfigFile 默认配置文件名（当前目录）
const DefaultConfigFile = "config.yaml"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Vector    VectorConfig    `yaml:"vector"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Retry     RetryConfig     `yaml:"retry"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       log.Config      `yaml:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host        string   `yaml:"host"`
	HTTPPort    string   `yaml:"http_port" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return s.Host + s.HTTPPort
}

// EmbeddingConfig Embedding 服务配置
type EmbeddingConfig struct {
	// Provider: openai（OpenAI 兼容接口，默认 OpenRouter）或 hugot（本地模型）
	Provider    string `yaml:"provider" validate:"oneof=openai hugot"`
	BaseURL     string `yaml:"base_url" validate:"required_if=Provider openai"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model" validate:"required"`
	Dimension   int    `yaml:"dimension" validate:"gte=0"`
	BatchSize   int    `yaml:"batch_size" validate:"gte=1,lte=2048"`
	Concurrency int    `yaml:"concurrency" validate:"gte=1,lte=32"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=1"`
	// ModelDir 本地模型目录（hugot）
	ModelDir string `yaml:"model_dir"`
}

// LLMConfig 生成模型配置
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url" validate:"required,url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=1"`
	TimeoutSecs int     `yaml:"timeout_secs" validate:"gte=1"`
}

// VectorConfig 向量索引配置
type VectorConfig struct {
	// Backend: memory, sqlite, qdrant, pgvector
	Backend    string         `yaml:"backend" validate:"oneof=memory sqlite qdrant pgvector"`
	Collection string         `yaml:"collection" validate:"required"`
	SQLitePath string         `yaml:"sqlite_path"`
	Qdrant     QdrantConfig   `yaml:"qdrant"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// QdrantConfig Qdrant 连接配置
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

// PostgresConfig pgvector 连接配置
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ChunkingConfig 分片配置
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" validate:"gte=1"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK    int `yaml:"top_k" validate:"gte=1,lte=20"`
	MaxTopK int `yaml:"max_top_k" validate:"gtefield=TopK"`
}

// RetryConfig 外部调用重试配置
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`
	Jitter         bool          `yaml:"jitter"`
}

// IngestConfig 入库配置
type IngestConfig struct {
	// WatchDir 自动入库的监听目录，留空表示不启用
	WatchDir       string `yaml:"watch_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" validate:"gte=1"`
}

// DiscoveryConfig 局域网服务广播配置
type DiscoveryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	InstanceName string `yaml:"instance_name"`
}

// NewConfig 创建配置（默认值）
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    ":8000",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			BaseURL:     "https://openrouter.ai/api/v1",
			APIKey:      "sk-or-v1-free",
			Model:       "thenlper/gte-large:free",
			Dimension:   1024,
			BatchSize:   20,
			Concurrency: 4,
			TimeoutSecs: 30,
			ModelDir:    filepath.Join(GetDataDir(), "models"),
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			APIKey:      "sk-or-v1-free",
			Model:       "google/gemma-2-9b-it:free",
			Temperature: 0.7,
			MaxTokens:   1000,
			TimeoutSecs: 60,
		},
		Vector: VectorConfig{
			Backend:    "sqlite",
			Collection: "documents",
			SQLitePath: filepath.Join(GetDataDir(), "chatbot-rag.db"),
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:    5,
			MaxTopK: 20,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     10 * time.Second,
		},
		Ingest: IngestConfig{
			MaxUploadBytes: 20 << 20,
		},
		Discovery: DiscoveryConfig{
			InstanceName: "chatbot-rag",
		},
		Log: log.DefaultConfig(),
	}
}

// Load 加载配置：默认值 -> YAML 文件 -> 环境变量，最后校验
// path 为空时依次尝试 RAG_CONFIG 与 ./config.yaml，文件不存在时使用默认值
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultConfigFile
	}

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideConfig Wire 使用的配置入口
func ProvideConfig() (*Config, error) {
	return Load("")
}

// loadFile 读取 YAML 文件覆盖默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// 单例校验器
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			return fmt.Errorf("invalid config: %s failed on '%s'", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Vector.Backend == "pgvector" && c.Vector.Postgres.DSN == "" {
		return fmt.Errorf("invalid config: vector.postgres.dsn is required for pgvector backend")
	}
	return nil
}

// Save 写出 YAML 配置
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewEmbeddingConfig 创建 Embedding 配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewVectorConfig 创建向量索引配置
func NewVectorConfig(cfg *Config) *VectorConfig {
	return &cfg.Vector
}
