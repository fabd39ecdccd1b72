package document

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
)

// MinTextLength 提取结果的最小字符数
const MinTextLength = 10

// 页与段落之间的分隔
const partSeparator = "\n\n"

// extractFunc 单一格式的提取函数
type extractFunc func(data []byte) (*domainRAG.ExtractedDocument, error)

// Extractor 按扩展名分派的文本提取器
type Extractor struct {
	extractors map[string]extractFunc
	logger     *slog.Logger
}

// 编译期检查
var _ domainRAG.TextExtractor = (*Extractor)(nil)

// NewExtractor 创建提取器，支持 .txt .md .pdf .docx
func NewExtractor() *Extractor {
	return &Extractor{
		extractors: map[string]extractFunc{
			".txt":  extractPlainText,
			".md":   extractPlainText,
			".pdf":  extractPDF,
			".docx": extractDOCX,
		},
		logger: log.NewModuleLogger("document", "extractor"),
	}
}

// SupportedExtensions 支持的扩展名（排序后）
func (e *Extractor) SupportedExtensions() []string {
	exts := make([]string, 0, len(e.extractors))
	for ext := range e.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports 是否支持该文件
func (e *Extractor) Supports(filename string) bool {
	_, ok := e.extractors[extension(filename)]
	return ok
}

// UnsupportedMessage 不支持格式时展示给用户的说明
func (e *Extractor) UnsupportedMessage(filename string) string {
	return fmt.Sprintf("Unsupported file type: %s. Supported: %s",
		extension(filename), strings.Join(e.SupportedExtensions(), ", "))
}

// Extract 提取文件文本
func (e *Extractor) Extract(filename string, data []byte) (*domainRAG.ExtractedDocument, error) {
	fn, ok := e.extractors[extension(filename)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainRAG.ErrUnsupportedFormat, e.UnsupportedMessage(filename))
	}

	doc, err := fn(data)
	if err != nil {
		return nil, err
	}

	length := utf8.RuneCountInString(strings.TrimSpace(doc.Text))
	if length < MinTextLength {
		return nil, fmt.Errorf("%w: %s contains %d characters, at least %d required",
			domainRAG.ErrExtractedTextTooShort, filename, length, MinTextLength)
	}

	e.logger.Debug("Text extracted",
		"filename", filename,
		"characters", length,
		"pages", len(doc.PageMap),
	)
	return doc, nil
}

// extension 小写扩展名
func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// joinParts 用空行拼接各部分，pageMap 非空时记录每部分起始偏移（按字符计）
func joinParts(parts []string, withPages bool) *domainRAG.ExtractedDocument {
	var (
		sb      strings.Builder
		pageMap domainRAG.PageMap
		offset  int
	)
	if withPages {
		pageMap = make(domainRAG.PageMap, len(parts))
	}
	for i, part := range parts {
		if i > 0 {
			sb.WriteString(partSeparator)
			offset += utf8.RuneCountInString(partSeparator)
		}
		if withPages {
			pageMap[offset] = i + 1
		}
		sb.WriteString(part)
		offset += utf8.RuneCountInString(part)
	}
	return &domainRAG.ExtractedDocument{Text: sb.String(), PageMap: pageMap}
}
