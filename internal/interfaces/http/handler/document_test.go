package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/document"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupDocumentRouter(t *testing.T, maxBytes int64) (*gin.Engine, *MockDocumentService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewConfig()
	cfg.Ingest.MaxUploadBytes = maxBytes
	service := new(MockDocumentService)
	h := NewDocumentHandler(service, document.NewExtractor(), stubEmbedder{}, cfg)

	router := gin.New()
	group := router.Group("/api/documents")
	group.POST("/upload", h.Upload)
	group.GET("/", h.List)
	group.GET("/info", h.Info)
	group.DELETE("/", h.Clear)
	group.DELETE("/:filename", h.Delete)
	return router, service
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDocumentHandler_Upload(t *testing.T) {
	t.Run("indexes supported file", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)
		content := []byte("Some document text long enough.")
		service.On("IngestFile", mock.Anything, "notes.txt", content).Return(&domainRAG.IngestResult{
			DocumentID: "chunk-1",
			Filename:   "notes.txt",
			NumChunks:  1,
			Message:    "Successfully indexed 1 chunks from notes.txt",
		}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "notes.txt", content))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "notes.txt", body["filename"])
		assert.Equal(t, float64(1), body["num_chunks"])
		service.AssertExpectations(t)
	})

	t.Run("rejects unsupported extension", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "image.png", []byte("binary")))

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Unsupported file type: .png. Supported: .docx, .md, .pdf, .txt", body["detail"])
		service.AssertNotCalled(t, "IngestFile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		router, _ := setupDocumentRouter(t, 8)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 64)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["detail"], "File too large")
	})

	t.Run("rejects empty file", func(t *testing.T) {
		router, _ := setupDocumentRouter(t, 1024)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "empty.md", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "File is empty", decodeBody(t, w)["detail"])
	})

	t.Run("missing file field", func(t *testing.T) {
		router, _ := setupDocumentRouter(t, 1024)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("extracted text too short", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)
		service.On("IngestFile", mock.Anything, "tiny.txt", mock.Anything).
			Return(nil, fmt.Errorf("failed to extract tiny.txt: %w", domainRAG.ErrExtractedTextTooShort))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "tiny.txt", []byte("hi")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)
		cause := &domainRAG.ProviderError{Provider: "embedding", StatusCode: 503, Transient: true}
		service.On("IngestFile", mock.Anything, "doc.md", mock.Anything).
			Return(nil, fmt.Errorf("%w: %w", domainRAG.ErrRetrievalUnavailable, cause))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, "doc.md", []byte("# Heading and body")))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Retrieval service unavailable", body["detail"])
		assert.NotContains(t, w.Body.String(), "status 503")
	})
}

func TestDocumentHandler_List(t *testing.T) {
	router, service := setupDocumentRouter(t, 1024)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.On("ListDocuments", mock.Anything).Return([]*domainRAG.DocumentInfo{
		{DocumentID: "a-0", Filename: "a.txt", NumChunks: 2, CreatedAt: created},
		{DocumentID: "b-0", Filename: "b.pdf", NumChunks: 5, CreatedAt: created},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var docs []domainRAG.DocumentInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[1].Filename)
	assert.Equal(t, 5, docs[1].NumChunks)
}

func TestDocumentHandler_Info(t *testing.T) {
	router, service := setupDocumentRouter(t, 1024)
	service.On("CollectionInfo", mock.Anything).Return(&domainRAG.CollectionInfo{
		Backend:          "sqlite",
		CollectionName:   "documents",
		TotalChunks:      7,
		TotalDocuments:   2,
		SimilarityMetric: "cosine",
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "documents", body["collection_name"])
	assert.Equal(t, float64(7), body["total_chunks"])
	assert.Equal(t, "test-model", body["model"])
	assert.Equal(t, float64(3), body["dimension"])
}

func TestDocumentHandler_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)
		service.On("DeleteDocument", mock.Anything, "report.pdf").Return(4, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/report.pdf", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Deleted 4 chunks from 'report.pdf'", body["message"])
		assert.Equal(t, float64(4), body["num_chunks_deleted"])
	})

	t.Run("not found", func(t *testing.T) {
		router, service := setupDocumentRouter(t, 1024)
		service.On("DeleteDocument", mock.Anything, "missing.txt").
			Return(0, fmt.Errorf("%w: missing.txt", domainRAG.ErrDocumentNotFound))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/missing.txt", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Document 'missing.txt' not found", decodeBody(t, w)["detail"])
	})
}

func TestDocumentHandler_Clear(t *testing.T) {
	router, service := setupDocumentRouter(t, 1024)
	service.On("Clear", mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/documents/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	service.AssertCalled(t, "Clear", mock.Anything)
}
