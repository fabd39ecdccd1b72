package document

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractPlainText 解码纯文本
// 有效 UTF-8 直接使用；带 UTF-16 BOM 的按 BOM 解码；其他按 Windows-1252 解码
func extractPlainText(data []byte) (*domainRAG.ExtractedDocument, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return &domainRAG.ExtractedDocument{Text: text}, nil
}

// decodeText 转换为 UTF-8 字符串
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) && !hasUTF16BOM(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}

	decoder := unicode.BOMOverride(charmap.Windows1252.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(out), nil
}

// hasUTF16BOM 是否以 UTF-16 BOM 开头
func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}
