package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskweave/internal/ctxlog"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := ctxlog.WithLogger(context.Background(), logger)
	ctxlog.FromContext(ctx).Info("hello")
	require.Contains(t, buf.String(), "hello")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	require.NotNil(t, ctxlog.FromContext(context.Background()))
}
