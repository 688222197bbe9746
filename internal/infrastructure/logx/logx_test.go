package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithFields_AddsContextIDs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger
	logger = zap.New(core)
	t.Cleanup(func() { logger = prev })

	ctx := WithTraceID(WithRequestID(context.Background(), "req-1"), "trace-1")
	WithFields(ctx).Info("hello")
	WithFields(context.Background()).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "trace-1", fields["trace_id"])
	require.Empty(t, entries[1].ContextMap())
}
