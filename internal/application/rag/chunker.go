package rag

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/google/uuid"
)

// 句子结束符（含后随空格）
var sentenceTerminators = []string{". ", "! ", "? "}

// Chunker 文本分片器
// 固定窗口滑动，优先在句子边界处切分，其次在空格处
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	newID        func() string
	now          func() time.Time
}

// NewChunker 创建分片器
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// ChunkSize 窗口大小（字符）
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// ChunkOverlap 重叠大小（字符）
func (c *Chunker) ChunkOverlap() int {
	return c.chunkOverlap
}

// Chunk 将文本切分为有序片段
// pageMap 可为空，为空时所有片段的页码均未设置
func (c *Chunker) Chunk(text, source string, pageMap domainRAG.PageMap) ([]*domainRAG.DocumentChunk, error) {
	cleaned := NormalizeText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: extracted text is empty", domainRAG.ErrEmptyInput)
	}

	// 按字符（rune）计算位置
	runes := []rune(cleaned)
	n := len(runes)
	pages := remapPages(text, pageMap).Index()
	createdAt := c.now().UTC()

	chunks := make([]*domainRAG.DocumentChunk, 0, n/c.chunkSize+1)
	start := 0
	for start < n {
		end := start + c.chunkSize
		last := end >= n
		if last {
			end = n
		} else {
			end = c.findCut(runes, start, end)
		}

		raw := string(runes[start:end])
		chunkText := strings.TrimSpace(raw)
		if chunkText != "" {
			var page *int
			if !pages.Empty() {
				// 以去掉前导空格后的首字符定位页码
				lead := utf8.RuneCountInString(raw) - utf8.RuneCountInString(strings.TrimLeftFunc(raw, unicode.IsSpace))
				page = pages.PageAt(start + lead)
			}
			chunks = append(chunks, &domainRAG.DocumentChunk{
				ChunkID: c.newID(),
				Text:    chunkText,
				Metadata: domainRAG.ChunkMetadata{
					Source:     source,
					Page:       page,
					ChunkIndex: len(chunks),
					CreatedAt:  createdAt,
				},
			})
		}

		if last {
			break
		}

		next := end - c.chunkOverlap
		// 保证窗口前进
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// findCut 在 [start, end) 内向后查找切分点
func (c *Chunker) findCut(runes []rune, start, end int) int {
	if pos := lastTerminator(runes, start, end); pos > start {
		// 保留结束符，不含其后的空格
		return pos + 1
	}
	if pos := lastSpace(runes, start, end); pos > start {
		return pos
	}
	return end
}

// lastTerminator 最后一个完整落在 [start, end) 内的句子结束符位置，不存在返回 -1
func lastTerminator(runes []rune, start, end int) int {
	best := -1
	for _, term := range sentenceTerminators {
		t := []rune(term)
		for i := end - len(t); i >= start; i-- {
			if runes[i] == t[0] && runes[i+1] == t[1] {
				if i > best {
					best = i
				}
				break
			}
		}
	}
	return best
}

// lastSpace 最后一个落在 [start, end) 内的空格位置，不存在返回 -1
func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// NormalizeText 合并连续空白为单个空格并去除首尾空白
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// remapPages 将基于原始文本的页起始偏移换算为 NormalizeText 之后的偏移
// 多页落在同一位置时保留页码较大者
func remapPages(text string, pageMap domainRAG.PageMap) domainRAG.PageMap {
	if len(pageMap) == 0 {
		return pageMap
	}

	var (
		out     int
		started bool
		pending bool
	)
	positions := make(map[int]int, len(pageMap))
	i := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			pending = true
			if _, ok := pageMap[i]; ok {
				pos := out
				if started {
					pos++
				}
				positions[i] = pos
			}
			i++
			continue
		}
		if pending && started {
			out++
		}
		pending = false
		started = true
		if _, ok := pageMap[i]; ok {
			positions[i] = out
		}
		out++
		i++
	}

	remapped := make(domainRAG.PageMap, len(pageMap))
	for offset, page := range pageMap {
		pos, ok := positions[offset]
		if !ok {
			// 超出文本末尾
			pos = out
		}
		if prev, ok := remapped[pos]; !ok || page > prev {
			remapped[pos] = page
		}
	}
	return remapped
}
