package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// docx 正文所在的压缩包条目
const docxBodyEntry = "word/document.xml"

// extractDOCX 读取 word/document.xml 中的段落，跳过空段落
func extractDOCX(data []byte) (*domainRAG.ExtractedDocument, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid docx: %w", err)
	}

	for _, f := range archive.File {
		if f.Name != docxBodyEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", docxBodyEntry, err)
		}
		defer rc.Close()

		paragraphs, err := parseParagraphs(rc)
		if err != nil {
			return nil, err
		}
		return joinParts(paragraphs, false), nil
	}

	return nil, fmt.Errorf("invalid docx: missing %s", docxBodyEntry)
}

// parseParagraphs 按 <w:p> 收集 <w:t> 文本，<w:tab> 和 <w:br> 转换为空白
func parseParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := current.String(); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
