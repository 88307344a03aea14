package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenRequestID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenRequestID()
		assert.Len(t, id, 32)
		assert.NotContains(t, id, "-")
		assert.False(t, ids[id], "duplicate request id %s", id)
		ids[id] = true
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"短文本", "abc", 5, "abc"},
		{"刚好等长", "abcde", 5, "abcde"},
		{"超长截断", "abcdef", 3, "abc..."},
		{"中文按字符", "发生了错误", 2, "发生..."},
		{"不限制", "abcdef", 0, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}
