package request

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportErrorUnwrapsToKind(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransportError(ErrConnect, cause)

	assert.ErrorIs(t, err, ErrConnect)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestTransportErrorMessageWithoutCause(t *testing.T) {
	err := NewTransportError(ErrTimeout, nil)
	assert.Equal(t, ErrTimeout.Error(), err.Error())
}

func TestTransportErrorMessageWithCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewTransportError(ErrTransport, cause)
	assert.Contains(t, err.Error(), ErrTransport.Error())
	assert.Contains(t, err.Error(), "boom")
}
