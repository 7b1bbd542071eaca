package request

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartAttemptSpanNoopWithoutProvider(t *testing.T) {
	req := NewRequest(http.MethodGet, "/x")
	ctx, end := startAttemptSpan(context.Background(), req, 0)
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { end(&Response{StatusCode: 200}, nil) })
}

func TestStartAttemptSpanRecordsError(t *testing.T) {
	req := NewRequest(http.MethodGet, "/x")
	_, end := startAttemptSpan(context.Background(), req, 1)
	assert.NotPanics(t, func() { end(nil, ErrTimeout) })
}

func TestStartBreakerSpan(t *testing.T) {
	_, end := startBreakerSpan(context.Background(), "GET /x", Open)
	assert.NotPanics(t, end)
}
