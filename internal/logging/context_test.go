package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestWithOperation_KeepsOuterID(t *testing.T) {
	ctx := WithOperation(context.Background(), "source.add")
	outer := OperationFromContext(ctx)
	require.NotNil(t, outer)
	assert.NotEmpty(t, outer.ID)

	inner := OperationFromContext(WithOperation(ctx, "vcs.checkout"))
	assert.Equal(t, outer.ID, inner.ID)
	assert.Equal(t, "source.add", inner.Name)
}

func TestWithOperation_DistinctIDs(t *testing.T) {
	a := OperationFromContext(WithOperation(context.Background(), "x"))
	b := OperationFromContext(WithOperation(context.Background(), "x"))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)
	ctx = WithOperation(ctx, "source.remove")
	ctx = WithSource(ctx, "coco")
	FromContext(ctx).Warn(ctx, "cleanup failed")

	logger.AssertLogged(t, zapcore.WarnLevel, "cleanup failed")
	logger.AssertField(t, "cleanup failed", "source.name", "coco")
	logger.AssertOperation(t, "cleanup failed")
	logger.AssertNotLogged(t, zapcore.ErrorLevel, "cleanup failed")
}
