package request

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleAttemptStrategyReturnsVerbatim(t *testing.T) {
	s := NewSingleAttemptStrategy()
	calls := 0
	send := func(ctx context.Context, deadline Deadline) (*Response, Verdict, error) {
		calls++
		return &Response{StatusCode: 503}, Reject, nil
	}

	resp, err := s.Execute(context.Background(), NewRequest(http.MethodGet, "/x"), send, FromTimeout(time.Second), PriorityNormal)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestSingleAttemptStrategyPropagatesError(t *testing.T) {
	s := NewSingleAttemptStrategy()
	send := func(ctx context.Context, deadline Deadline) (*Response, Verdict, error) {
		return nil, Reject, ErrTimeout
	}

	_, err := s.Execute(context.Background(), NewRequest(http.MethodGet, "/x"), send, FromTimeout(time.Second), PriorityNormal)
	assert.ErrorIs(t, err, ErrTimeout)
}
