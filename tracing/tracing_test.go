package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "span_test.txt")
	other := filepath.Join(dir, "other.txt")

	require.NoError(t, Init("scorepool", "0.0.1", fname))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	require.NoError(t, Init("scorepool", "0.0.1", other))
	_, err := os.Stat(other)
	assert.True(t, os.IsNotExist(err), "second Init must not open its output")

	ctx, span := StartSpan(context.Background(), "dispatcher.task")
	span.WithAttributes(map[string]string{"task.id": "t1"}).WithUnit(2)
	span.AddEvent("queued")
	_, child := StartSpan(ctx, "kernel")
	EndSpan(child, errors.New("boom"))
	EndSpan(span, nil)

	require.NoError(t, Shutdown(context.Background()))
	assert.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dispatcher.task")
	assert.Contains(t, string(data), "queued")
}

func TestInit_Reinstall(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	require.NoError(t, Init("scorepool", "0.0.1", first))
	require.NoError(t, Shutdown(context.Background()))
	require.NoError(t, Init("scorepool", "0.0.1", second))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	_, span := StartSpan(context.Background(), "after.reinstall")
	EndSpan(span, nil)
	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after.reinstall")
}

func TestInit_BadPath(t *testing.T) {
	err := Init("scorepool", "0.0.1", filepath.Join(t.TempDir(), "missing", "spans.txt"))
	assert.Error(t, err)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.WithAttributes(map[string]string{"k": "v"}).WithUnit(1)
		span.AddEvent("x")
		EndSpan(span, nil)
	})
	assert.NoError(t, Setup(DefaultConfig()))
}
