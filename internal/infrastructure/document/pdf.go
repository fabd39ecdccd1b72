package document

import (
	"bytes"
	"fmt"
	"strings"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF 逐页提取文本并记录页码偏移
func extractPDF(data []byte) (*domainRAG.ExtractedDocument, error) {
	// 先用 pdfcpu 校验文件结构，损坏或加密的文件在这里失败
	conf := model.NewDefaultConfiguration()
	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := min(reader.NumPage(), pageCount)

	parts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		parts = append(parts, strings.TrimSpace(text))
	}

	return joinParts(parts, true), nil
}
