package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/discovery"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/chat"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "RAG chat API base URL")
	discover := flag.Bool("discover", false, "find a server on the local network via mDNS")
	topK := flag.Int("top-k", 0, "chunks to retrieve (0 uses the server default)")
	developer := flag.Bool("developer", false, "show the assembled prompt with each answer")
	maxHistory := flag.Int("max-history", 20, "messages of history sent with each question (0 for all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	baseURL := *server
	if *discover {
		found, err := discoverServer()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
			os.Exit(1)
		}
		baseURL = found
	}

	client := chat.NewClient(baseURL, *timeout)
	model := chat.New(client, chat.Options{
		TopK:          *topK,
		DeveloperMode: *developer,
		MaxHistory:    *maxHistory,
		Server:        client.BaseURL(),
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// discoverServer 返回局域网内第一个可用实例的地址
func discoverServer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services, err := discovery.Discover(ctx, 3*time.Second)
	if err != nil {
		return "", err
	}
	for _, s := range services {
		if endpoint := s.Endpoint(); endpoint != "" {
			return endpoint, nil
		}
	}
	return "", fmt.Errorf("no RAG chat server found on the local network")
}
