// @title RAG Chatbot API
// @version 1.0.0
// @description 检索增强问答服务 API
// @host localhost:8000
// @BasePath /
// @schemes http
package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	applog "github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/singleton"
	"github.com/axeltanjung/chatbot-rag/internal/wire"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $RAG_CONFIG or ./config.yaml)")
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()
	if *configPath != "" {
		_ = os.Setenv(config.EnvConfigPath, *configPath)
	}

	// 初始化日志系统
	applog.Init(nil)
	logger := applog.GetLogger()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	// 按 config.yaml 的 log 段重新初始化
	applog.Init(&cfg.Log)
	defer func() { _ = applog.Close() }()
	logger = applog.GetLogger()

	// 单例锁检查：已有实例时直接退出
	listener, err := singleton.CheckAndLock(cfg.Server.Addr())
	if errors.Is(err, singleton.ErrAlreadyRunning) {
		logger.Info("Another instance is already running", "addr", cfg.Server.Addr())
		os.Exit(0)
	}
	if err != nil {
		logger.Error("Failed to acquire listen address", "error", err)
		os.Exit(1)
	}

	// Wire 生成的初始化函数
	app, cleanup, err := wire.InitializeAll()
	if err != nil {
		_ = listener.Close()
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := app.Start(listener); err != nil {
		logger.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-app.Errors():
		logger.Error("HTTP server failed", "error", err)
	}

	logger.Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		logger.Error("Error during application shutdown", "error", err)
	}
	logger.Info("Application stopped")
}
