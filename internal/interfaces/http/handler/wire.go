package handler

import (
	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/document"
	"github.com/google/wire"
)

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewDocumentHandler,
	NewChatHandler,
	NewEventsHandler,
	wire.Bind(new(DocumentService), new(*appRAG.IngestService)),
	wire.Bind(new(ChatService), new(*appRAG.AnswerService)),
	wire.Bind(new(FileFormats), new(*document.Extractor)),
)
