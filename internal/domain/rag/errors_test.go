package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"限流", NewStatusError("embedding", 429), true},
		{"服务端错误", NewStatusError("llm", 503), true},
		{"请求超时", NewStatusError("llm", 408), true},
		{"鉴权失败", NewStatusError("llm", 401), false},
		{"请求错误", NewStatusError("embedding", 400), false},
		{"上下文取消", context.Canceled, false},
		{"上下文超时", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"结果格式错误", fmt.Errorf("%w: 2 vectors for 3 texts", ErrMalformedResult), false},
		{"空输入", ErrEmptyInput, false},
		{"网络错误", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"包装的可重试错误", fmt.Errorf("batch 1: %w", NewStatusError("embedding", 502)), true},
		{"未分类错误", errors.New("unexpected"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestProviderError_HidesDetails(t *testing.T) {
	err := &ProviderError{Provider: "llm", StatusCode: 500, Transient: true}
	assert.Equal(t, "llm returned status 500", err.Error())

	inner := errors.New("dial tcp: timeout")
	wrapped := &ProviderError{Provider: "embedding", Err: inner, Transient: true}
	assert.ErrorIs(t, wrapped, inner)
	assert.Contains(t, wrapped.Error(), "embedding request failed")
}
