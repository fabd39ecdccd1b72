package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/knights-analytics/hugot"
)

// LocalProvider 基于 hugot 的本地句向量模型，无需外部 API
type LocalProvider struct {
	model     string
	dimension int
	session   *hugot.Session
	run       func(texts []string) ([][]float32, error)
	// 推理会话不保证并发安全
	mu     sync.Mutex
	logger *slog.Logger
}

// NewLocalProvider 加载（必要时下载）模型并创建推理会话
func NewLocalProvider(modelName, modelDir string) (*LocalProvider, error) {
	logger := log.NewModuleLogger("embedding", "hugot")

	modelPath, err := prepareModel(modelName, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "rag-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	p := &LocalProvider{
		model:   modelName,
		session: session,
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
		logger: logger,
	}

	// 探测维度
	probe, err := p.run([]string{"test"})
	if err != nil || len(probe) == 0 {
		_ = p.Close()
		return nil, fmt.Errorf("failed to probe embedding dimension: %v", err)
	}
	p.dimension = len(probe[0])

	logger.Info("Local embedding model loaded",
		"model", modelName,
		"path", modelPath,
		"dimension", p.dimension,
	)
	return p, nil
}

// prepareModel 模型不存在时下载到 modelDir
func prepareModel(modelName, modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat model path: %w", err)
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	options := hugot.NewDownloadOptions()
	options.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(modelName, modelDir, options)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// Embed 单条文本向量化
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 批量向量化
func (p *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", domainRAG.ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	vectors, err := p.run(texts)
	if err != nil {
		// 本地推理失败重试无意义
		return nil, &domainRAG.ProviderError{Provider: "hugot", Transient: false, Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domainRAG.ErrMalformedResult, len(vectors), len(texts))
	}
	return vectors, nil
}

// Info 模型信息
func (p *LocalProvider) Info() domainRAG.EmbeddingInfo {
	return domainRAG.EmbeddingInfo{
		Provider:  "hugot",
		Model:     p.model,
		Dimension: p.dimension,
	}
}

// Close 释放推理会话
func (p *LocalProvider) Close() error {
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}
