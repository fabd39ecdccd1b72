package middleware

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EnsureUTF8Body 确保 JSON 请求体是 UTF-8 编码的中间件
// 非 UTF-8 的请求体按 Windows-1252 解码，multipart 上传不处理
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 ||
			strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		_ = c.Request.Body.Close()
		if err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		if len(bodyBytes) == 0 || utf8.Valid(bodyBytes) {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		utf8Bytes, err := decodeWindows1252(bodyBytes)
		if err != nil || !utf8.Valid(utf8Bytes) {
			// 转换失败，使用原始数据
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(utf8Bytes))
		c.Request.ContentLength = int64(len(utf8Bytes))
		c.Next()
	}
}

// decodeWindows1252 将 Windows-1252 编码的字节转换为 UTF-8
func decodeWindows1252(data []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	return io.ReadAll(reader)
}
