package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureWriters(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := gin.DefaultWriter, gin.DefaultErrorWriter
	gin.DefaultWriter, gin.DefaultErrorWriter = out, errOut
	t.Cleanup(func() {
		gin.DefaultWriter, gin.DefaultErrorWriter = oldOut, oldErr
	})
	return out, errOut
}

func TestInfoCarriesRequestId(t *testing.T) {
	out, errOut := captureWriters(t)

	ctx := context.WithValue(context.Background(), RequestIdKey, "req-1")
	Infof(ctx, "strength: %v", 0.9)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "req-1", entry.RequestId)
	assert.Equal(t, "strength: 0.9", entry.Msg)
	assert.Zero(t, errOut.Len())
}

func TestErrorGoesToErrorWriter(t *testing.T) {
	out, errOut := captureWriters(t)

	Error(context.Background(), "boom")

	assert.Zero(t, out.Len())
	var entry LogEntry
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &entry))
	assert.Equal(t, "error", entry.Level)
	assert.NotEmpty(t, entry.RequestId)
}

func TestWithRequestId(t *testing.T) {
	ctx := WithRequestId(context.Background())
	id, ok := ctx.Value(RequestIdKey).(string)
	require.True(t, ok)
	assert.Len(t, id, 32)

	// 已有 request id 时保持不变
	assert.Equal(t, ctx, WithRequestId(ctx))
}
