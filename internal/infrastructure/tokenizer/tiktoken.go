package tokenizer

import (
	"sync"
	"unicode/utf8"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// EncodingName 使用的编码
const EncodingName = "cl100k_base"

// Counter 基于 tiktoken 的 Token 计数器
// 编码加载失败时退化为按字符数估算（约 4 字符 / token）
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// 编译期检查
var _ domainRAG.TokenCounter = (*Counter)(nil)

var (
	counterInstance *Counter
	counterOnce     sync.Once
)

// NewCounter 获取 Counter 单例，避免重复加载编码文件
func NewCounter() *Counter {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(EncodingName)
		if err != nil {
			log.NewModuleLogger("tokenizer", "tiktoken").Warn("Failed to load tiktoken encoding, using estimate",
				"encoding", EncodingName,
				"error", err,
			)
		}
		counterInstance = &Counter{encoding: enc}
	})
	return counterInstance
}

// CountTokens 计算文本的 Token 数量
func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding == nil {
		return estimate(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// CountTokensBatch 批量计算 Token 数量
func (c *Counter) CountTokensBatch(texts []string) int {
	total := 0
	for _, text := range texts {
		total += c.CountTokens(text)
	}
	return total
}

// Method 计数方式
func (c *Counter) Method() string {
	if c.encoding == nil {
		return "estimate"
	}
	return "tiktoken"
}

// estimate 粗略估算
func estimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
