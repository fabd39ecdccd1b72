package mcp

import (
	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	"github.com/google/wire"
)

// ProviderSet MCP ProviderSet
var ProviderSet = wire.NewSet(
	NewServer,
	wire.Bind(new(Answerer), new(*appRAG.AnswerService)),
	wire.Bind(new(DocumentLister), new(*appRAG.IngestService)),
)
