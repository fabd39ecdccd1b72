package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 文档管理处理器
type DocumentHandler struct {
	documents DocumentService
	formats   FileFormats
	embedder  domainRAG.EmbeddingProvider
	maxBytes  int64
	logger    *slog.Logger
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(
	documents DocumentService,
	formats FileFormats,
	embedder domainRAG.EmbeddingProvider,
	cfg *config.Config,
) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		formats:   formats,
		embedder:  embedder,
		maxBytes:  cfg.Ingest.MaxUploadBytes,
		logger:    log.NewModuleLogger("http", "documents"),
	}
}

// DeleteResponse 删除文档响应
type DeleteResponse struct {
	Message          string `json:"message"`
	NumChunksDeleted int    `json:"num_chunks_deleted"`
}

// InfoResponse 向量库与 Embedding 信息
type InfoResponse struct {
	domainRAG.CollectionInfo
	domainRAG.EmbeddingInfo
}

// Upload 上传并索引文档
// @Summary 上传文档
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文档（.txt .md .pdf .docx）"
// @Success 200 {object} domainRAG.IngestResult
// @Failure 400 {object} response.ErrorResponse
// @Router /api/documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid upload", "multipart field 'file' is required")
		return
	}

	filename := filepath.Base(fileHeader.Filename)
	if !h.formats.Supports(filename) {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid upload", h.formats.UnsupportedMessage(filename))
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid upload",
			fmt.Sprintf("File too large: %d bytes exceeds limit of %d bytes", fileHeader.Size, h.maxBytes))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.FromError(c, h.logger, "Error processing document", err)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		response.FromError(c, h.logger, "Error processing document", err)
		return
	}
	if len(data) == 0 {
		response.ErrorWithDetail(c, http.StatusBadRequest, "Invalid upload", "File is empty")
		return
	}

	result, err := h.documents.IngestFile(c.Request.Context(), filename, data)
	if err != nil {
		response.FromError(c, h.logger, "Error processing document", err)
		return
	}

	response.Success(c, result)
}

// List 列出已索引文档
// @Summary 文档列表
// @Tags documents
// @Produce json
// @Success 200 {array} domainRAG.DocumentInfo
// @Router /api/documents/ [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.ListDocuments(c.Request.Context())
	if err != nil {
		response.FromError(c, h.logger, "Error listing documents", err)
		return
	}
	response.Success(c, docs)
}

// Info 向量库信息
// @Summary 向量库信息
// @Tags documents
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /api/documents/info [get]
func (h *DocumentHandler) Info(c *gin.Context) {
	info, err := h.documents.CollectionInfo(c.Request.Context())
	if err != nil {
		response.FromError(c, h.logger, "Error getting info", err)
		return
	}
	response.Success(c, InfoResponse{
		CollectionInfo: *info,
		EmbeddingInfo:  h.embedder.Info(),
	})
}

// Delete 删除文档的全部片段
// @Summary 删除文档
// @Tags documents
// @Produce json
// @Param filename path string true "文件名"
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/documents/{filename} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")

	deleted, err := h.documents.DeleteDocument(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, domainRAG.ErrDocumentNotFound) {
			response.ErrorWithDetail(c, http.StatusNotFound, "Not found",
				fmt.Sprintf("Document '%s' not found", filename))
			return
		}
		response.FromError(c, h.logger, "Error deleting document", err)
		return
	}

	response.Success(c, DeleteResponse{
		Message:          fmt.Sprintf("Deleted %d chunks from '%s'", deleted, filename),
		NumChunksDeleted: deleted,
	})
}

// Clear 清空全部文档
// @Summary 清空索引
// @Tags documents
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Router /api/documents/ [delete]
func (h *DocumentHandler) Clear(c *gin.Context) {
	if err := h.documents.Clear(c.Request.Context()); err != nil {
		response.FromError(c, h.logger, "Error clearing documents", err)
		return
	}
	response.Success(c, response.MessageResponse{Message: "All documents deleted"})
}
