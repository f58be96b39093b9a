package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level, tracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewFromZap(zap.New(core), tracing), logs
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel(Debug))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(Info))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(Warning))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(Error))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestFieldsAndError(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel, false)

	log.Error("query failed", errors.New("boom"), map[string]interface{}{"collection": "docs"}, map[string]interface{}{"collection": "other"})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "other", ctx["collection"])
}

func TestLevelFiltering(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel, false)

	log.Debug("hidden", nil)
	log.Info("shown", nil)
	log.Warn("shown too", nil)

	assert.Equal(t, 2, logs.Len())
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel, true)

	log.DebugWithContext(spanContext(t), "request completed", nil, map[string]interface{}{"status": "success"})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ctx["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", ctx["span_id"])
	assert.Equal(t, "success", ctx["status"])
}

func TestWithContextTracingDisabled(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel, false)

	log.ErrorWithContext(spanContext(t), "request failed", errors.New("boom"))
	log.InfoWithContext(context.Background(), "plain", nil)

	for _, e := range logs.All() {
		_, ok := e.ContextMap()["trace_id"]
		assert.False(t, ok)
	}
}

func TestWithContextWithoutSpan(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel, true)

	log.WarnWithContext(context.Background(), "no span", nil)

	_, ok := logs.All()[0].ContextMap()["trace_id"]
	assert.False(t, ok)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Info("discarded", nil)
	log.ErrorWithContext(context.Background(), "discarded", errors.New("x"))
}
