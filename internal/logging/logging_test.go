package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "pocket-wallet", "warn", "production")

	log.Info("dropped")
	log.Warn("kept", "balance", "5420.50")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "pocket-wallet", line["service"])
	assert.Equal(t, "5420.50", line["balance"])
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "pocket-wallet", "debug", "development").Debug("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=pocket-wallet")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(&buf, "svc", "info", "production")
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
