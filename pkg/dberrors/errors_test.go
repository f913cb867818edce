package dberrors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeQuery, "nothing"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeDecode, "bad value")
	outer := Wrap(inner, ErrorTypeQuery, "query failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, "query: query failed: decode: bad value", outer.Error())
}

func TestSentinelMatching(t *testing.T) {
	err := Wrap(io.EOF, ErrorTypePoolExhausted, "timed out waiting for connection")

	assert.True(t, errors.Is(err, ErrPoolExhausted))
	assert.False(t, errors.Is(err, ErrConnection))
	assert.True(t, errors.Is(err, io.EOF))
	assert.False(t, errors.Is(io.EOF, ErrPoolExhausted))
}

func TestDetail(t *testing.T) {
	err := New(ErrorTypeInvalidIdentifier, "rejected").WithDetail("identifier", "a b")

	v, ok := err.Detail("identifier")
	require.True(t, ok)
	assert.Equal(t, "a b", v)

	_, ok = err.Detail("missing")
	assert.False(t, ok)
}

func TestNewfCapturesStack(t *testing.T) {
	err := Newf(ErrorTypeConfig, "capacity %d must be positive", 0)

	assert.Equal(t, "config: capacity 0 must be positive", err.Error())
	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestNewfCapturesStack")
}
