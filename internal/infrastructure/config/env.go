package config

import (
	"os"
	"strconv"
	"strings"
)

// 环境变量名
const (
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvEmbeddingAPIKey  = "EMBEDDING_API_KEY"
	EnvEmbeddingModel   = "EMBEDDING_MODEL"
	EnvEmbeddingURL     = "EMBEDDING_BASE_URL"
	EnvEmbeddingBackend = "EMBEDDING_PROVIDER"
	EnvLLMModel         = "LLM_MODEL"
	EnvLLMBaseURL       = "LLM_BASE_URL"
	EnvVectorBackend    = "VECTOR_BACKEND"
	EnvCollection       = "COLLECTION_NAME"
	EnvQdrantHost       = "QDRANT_HOST"
	EnvQdrantPort       = "QDRANT_PORT"
	EnvQdrantAPIKey     = "QDRANT_API_KEY"
	EnvPostgresDSN      = "PGVECTOR_DSN"
	EnvSQLitePath       = "SQLITE_PATH"
	EnvHTTPPort         = "HTTP_PORT"
	EnvCORSOrigins      = "CORS_ORIGINS"
	EnvChunkSize        = "CHUNK_SIZE"
	EnvChunkOverlap     = "CHUNK_OVERLAP"
	EnvTopK             = "TOP_K"
	EnvWatchDir         = "WATCH_DIR"
	EnvDiscovery        = "DISCOVERY_ENABLED"
)

// applyEnv 环境变量覆盖文件配置，空值忽略
func (c *Config) applyEnv() {
	// OPENROUTER_API_KEY 同时作用于 Embedding 和 LLM
	if v := os.Getenv(EnvOpenRouterAPIKey); v != "" {
		c.LLM.APIKey = v
		c.Embedding.APIKey = v
	}
	setString(&c.Embedding.APIKey, EnvEmbeddingAPIKey)
	setString(&c.Embedding.Model, EnvEmbeddingModel)
	setString(&c.Embedding.BaseURL, EnvEmbeddingURL)
	setString(&c.Embedding.Provider, EnvEmbeddingBackend)
	setString(&c.LLM.Model, EnvLLMModel)
	setString(&c.LLM.BaseURL, EnvLLMBaseURL)

	setString(&c.Vector.Backend, EnvVectorBackend)
	setString(&c.Vector.Collection, EnvCollection)
	setString(&c.Vector.Qdrant.Host, EnvQdrantHost)
	setInt(&c.Vector.Qdrant.Port, EnvQdrantPort)
	setString(&c.Vector.Qdrant.APIKey, EnvQdrantAPIKey)
	setString(&c.Vector.Postgres.DSN, EnvPostgresDSN)
	setString(&c.Vector.SQLitePath, EnvSQLitePath)

	if v := os.Getenv(EnvHTTPPort); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		c.Server.HTTPPort = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}

	setInt(&c.Chunking.ChunkSize, EnvChunkSize)
	setInt(&c.Chunking.ChunkOverlap, EnvChunkOverlap)
	setInt(&c.Retrieval.TopK, EnvTopK)
	setString(&c.Ingest.WatchDir, EnvWatchDir)

	if v := os.Getenv(EnvDiscovery); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Discovery.Enabled = b
		}
	}

	c.Log.ApplyEnv()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setInt 无法解析时保留原值
func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
