//go:build integration
// +build integration

// TestServer 管理独立 rag-server 进程的启动与关闭
package framework

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// 测试用配置：缩短重试退避，关闭局域网广播
const configTemplate = `server:
  host: "127.0.0.1"
  http_port: ":%d"
  cors_origins: ["*"]
embedding:
  provider: openai
  base_url: %q
  api_key: test
  model: fake-embedding
  dimension: %d
  batch_size: 8
  concurrency: 2
  timeout_secs: 5
llm:
  base_url: %q
  api_key: test
  model: fake-llm
  temperature: 0.2
  max_tokens: 200
  timeout_secs: 5
vector:
  backend: %s
  collection: documents
  sqlite_path: %q
chunking:
  chunk_size: 200
  chunk_overlap: 40
retrieval:
  top_k: 3
  max_top_k: 20
retry:
  max_attempts: 2
  initial_backoff: 10ms
  max_backoff: 50ms
ingest:
  max_upload_bytes: 1048576
discovery:
  enabled: false
`

// TestServer 测试服务进程
type TestServer struct {
	Name     string
	HTTPPort int
	DataDir  string
	Backend  string

	providers *FakeProviders
	cmd       *exec.Cmd
	baseURL   string
}

// ServerOption 服务配置选项
type ServerOption func(*TestServer)

// WithBackend 指定向量后端（memory 或 sqlite）
func WithBackend(backend string) ServerOption {
	return func(s *TestServer) { s.Backend = backend }
}

// WithDataDir 复用已有数据目录（用于重启场景）
func WithDataDir(dir string) ServerOption {
	return func(s *TestServer) { s.DataDir = dir }
}

// WithPort 指定端口
func WithPort(port int) ServerOption {
	return func(s *TestServer) { s.HTTPPort = port }
}

// NewTestServer 创建测试服务，模型调用全部转发到 providers
func NewTestServer(binaryPath, name string, providers *FakeProviders, opts ...ServerOption) (*TestServer, error) {
	s := &TestServer{Name: name, Backend: "sqlite", providers: providers}
	for _, opt := range opts {
		opt(s)
	}

	if s.HTTPPort == 0 {
		port, err := getFreePort()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate HTTP port: %w", err)
		}
		s.HTTPPort = port
	}
	if s.DataDir == "" {
		dir, err := os.MkdirTemp("", fmt.Sprintf("rag-test-%s-", name))
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s.DataDir = dir
	}
	s.baseURL = fmt.Sprintf("http://127.0.0.1:%d", s.HTTPPort)

	configPath := filepath.Join(s.DataDir, "config.yaml")
	config := fmt.Sprintf(configTemplate,
		s.HTTPPort,
		providers.BaseURL(), FakeDimension,
		providers.BaseURL(),
		s.Backend, filepath.Join(s.DataDir, "rag.db"),
	)
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}

	s.cmd = exec.Command(binaryPath, "-config", configPath)
	s.cmd.Dir = s.DataDir
	s.cmd.Env = append(os.Environ(),
		"RAG_DATA_DIR="+s.DataDir,
		"GIN_MODE=test",
		"LOG_LEVEL=warn",
	)
	s.cmd.Stdout = os.Stdout
	s.cmd.Stderr = os.Stderr
	return s, nil
}

// Start 启动服务并等待就绪
func (s *TestServer) Start() error {
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server %s: %w", s.Name, err)
	}
	return s.waitForReady(30 * time.Second)
}

// Stop 停止服务并清理数据目录
func (s *TestServer) Stop() error {
	return s.StopWithCleanup(true)
}

// StopWithCleanup 停止服务，可选择是否清理数据目录
func (s *TestServer) StopWithCleanup(cleanup bool) error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)

		done := make(chan error, 1)
		go func() {
			done <- s.cmd.Wait()
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = s.cmd.Process.Kill()
			<-done
		}
	}

	if cleanup {
		return os.RemoveAll(s.DataDir)
	}
	return nil
}

// BaseURL 返回 HTTP 基础 URL
func (s *TestServer) BaseURL() string {
	return s.baseURL
}

// waitForReady 等待 health 端点就绪
func (s *TestServer) waitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(s.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server %s failed to become ready within %v", s.Name, timeout)
}

// getFreePort 获取一个空闲的 TCP 端口
func getFreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
