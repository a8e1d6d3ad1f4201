package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Encoding: "json", Output: &buf})
	require.NoError(t, err)

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "u1")
	WithRequestID(ctx, log).Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "nonsense", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithRequestID_NoValues(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithRequestID(context.Background(), base))
	assert.Nil(t, WithRequestID(context.Background(), nil))
	assert.Empty(t, RequestIDFrom(context.Background()))
}
