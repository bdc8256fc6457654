package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserver(t *testing.T) {
	observer := Observer()
	assert.NotNil(t, observer, "Observer() should auto-initialize a local observer rather than return nil")
}

func TestNewLocalObserver(t *testing.T) {
	observer := NewLocalObserver()
	assert.NotNil(t, observer)

	ctx, span := observer.CreateSpan(context.Background(), "test-span")
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	span.End()
}

func TestCreateSpanWithoutGRPCContext(t *testing.T) {
	observer := Observer()
	ctx, span := observer.CreateSpan(context.Background(), "no-grpc-context")
	defer span.End()
	assert.NotNil(t, ctx)
}
