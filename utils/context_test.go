package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	assert.Empty(t, GetRequestIDFromCtx(context.Background()))

	ctx := WithRequestID(context.Background(), "rq-1")
	assert.Equal(t, "rq-1", GetRequestIDFromCtx(ctx))
}
