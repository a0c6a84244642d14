package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_BasicFormat(t *testing.T) {
	var buf bytes.Buffer
	handler := NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	record := slog.NewRecord(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), slog.LevelInfo, "test message", 0)
	record.AddAttrs(slog.String("key", "value"))

	require.NoError(t, handler.Handle(context.Background(), record))
	assert.Equal(t, "2026-03-02T10:30:00Z: [INFO] test message key=value\n", buf.String())
}

func TestTextHandler_Enabled(t *testing.T) {
	handler := NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := context.Background()
	assert.False(t, handler.Enabled(ctx, slog.LevelDebug))
	assert.False(t, handler.Enabled(ctx, slog.LevelInfo))
	assert.True(t, handler.Enabled(ctx, slog.LevelWarn))
	assert.True(t, handler.Enabled(ctx, slog.LevelError))
}

func TestTextHandler_QuotesStrings(t *testing.T) {
	var buf bytes.Buffer
	handler := NewTextHandler(&buf, nil)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	record.AddAttrs(slog.String("reason", "queue full"))

	require.NoError(t, handler.Handle(context.Background(), record))
	assert.Contains(t, buf.String(), `reason="queue full"`)
}

func TestTextHandler_ValueKinds(t *testing.T) {
	var buf bytes.Buffer
	handler := NewTextHandler(&buf, nil)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	record.AddAttrs(
		slog.Int("count", 42),
		slog.Bool("ok", true),
		slog.Duration("took", 250*time.Millisecond),
		slog.Float64("ratio", 0.5),
	)

	require.NoError(t, handler.Handle(context.Background(), record))
	output := buf.String()
	assert.Contains(t, output, "count=42")
	assert.Contains(t, output, "ok=true")
	assert.Contains(t, output, "took=250ms")
	assert.Contains(t, output, "ratio=0.5")
}

func TestTextHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := NewTextHandler(&buf, nil)

	handler := base.WithAttrs([]slog.Attr{slog.String("svc", "gamelink")})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	require.NoError(t, handler.Handle(context.Background(), record))
	assert.Contains(t, buf.String(), " svc=gamelink")
}

func TestTextHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	base := NewTextHandler(&buf, nil)

	handler := base.WithGroup("conn")

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	record.AddAttrs(slog.String("state", "open"))

	require.NoError(t, handler.Handle(context.Background(), record))
	assert.Contains(t, buf.String(), "conn.state=open")
}

func TestLevelFilter_DropsBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	inner := NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewLevelFilter(inner, slog.LevelWarn)

	ctx := context.Background()
	assert.False(t, filter.Enabled(ctx, slog.LevelInfo))
	assert.True(t, filter.Enabled(ctx, slog.LevelError))

	info := slog.NewRecord(time.Now(), slog.LevelInfo, "quiet", 0)
	require.NoError(t, filter.Handle(ctx, info))
	assert.Empty(t, buf.String())

	warn := slog.NewRecord(time.Now(), slog.LevelWarn, "loud", 0)
	require.NoError(t, filter.Handle(ctx, warn))
	assert.Contains(t, buf.String(), "loud")
}
