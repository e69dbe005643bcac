package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_FallsBackToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := IntoContext(context.Background(), zap.New(core))

	FromContext(ctx).Warn("snapshot delete failed", zap.String("session_id", "s1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "snapshot delete failed", entry.Message)
	assert.Equal(t, "s1", entry.ContextMap()["session_id"])
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	l, err := New("loud", "prod")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}
