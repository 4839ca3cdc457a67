package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestRedisConfig_Options(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Password = "pw"
	cfg.DB = 2

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestRedisConfig_URLWins(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.URL = "redis://:secret@cache.internal:6380/4"

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 4, opts.DB)
}

func TestRedisConfig_BadURL(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.URL = "http://not-redis"

	_, err := cfg.Options()
	assert.Error(t, err)
}

func TestTracingHook_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	hook := NewTracingHook(0, nil)

	process := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error { return nil })
	require.NoError(t, process(context.Background(), redis.NewStringCmd(context.Background(), "get", "session:abc")))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.get", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTracingHook_NilIsNotAnError(t *testing.T) {
	exporter := setupTestTracer(t)
	hook := NewTracingHook(0, nil)

	process := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error { return redis.Nil })
	err := process(context.Background(), redis.NewStringCmd(context.Background(), "get", "missing"))

	assert.ErrorIs(t, err, redis.Nil)
	assert.Equal(t, codes.Unset, exporter.GetSpans()[0].Status.Code)
}

func TestTracingHook_ErrorMarksSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	hook := NewTracingHook(0, nil)

	pipeline := hook.ProcessPipelineHook(func(ctx context.Context, cmds []redis.Cmder) error {
		return errors.New("connection reset")
	})
	err := pipeline(context.Background(), []redis.Cmder{
		redis.NewStatusCmd(context.Background(), "set", "a", "1"),
		redis.NewIntCmd(context.Background(), "expire", "a", 60),
	})

	require.Error(t, err)
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.pipeline", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracingHook_LogsSlowCommands(t *testing.T) {
	setupTestTracer(t)
	var buf bytes.Buffer
	hook := NewTracingHook(time.Millisecond, slog.New(slog.NewJSONHandler(&buf, nil)))

	process := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, process(context.Background(), redis.NewStringCmd(context.Background(), "get", "k")))

	assert.Contains(t, buf.String(), "slow redis command")
}
