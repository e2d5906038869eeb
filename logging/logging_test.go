package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	SetLogger(nil)
	require.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, slog.LevelDebug)
	ctx := AppendCtx(context.Background(), slog.String("run", "abc"))
	ctx = AppendCtx(ctx, slog.Int("n", 3))
	l.DebugContext(ctx, "hello", "k", "v")
	out := buf.String()
	require.Contains(t, out, "msg=hello")
	require.Contains(t, out, "run=abc")
	require.Contains(t, out, "n=3")
	require.Contains(t, out, "k=v")
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)
	var buf bytes.Buffer
	SetLogger(New(&buf, true, slog.LevelInfo))
	Logger().Debug("hidden")
	Logger().Info("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}
