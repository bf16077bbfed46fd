package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errUnavailable = errors.New("unavailable")

func TestMark(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	marked := Mark(cause, errUnavailable)

	assert.True(t, Is(marked, errUnavailable))
	assert.True(t, Is(marked, cause))
	assert.Contains(t, marked.Error(), "connection refused")
}

func TestMark_NilErrReturnsMark(t *testing.T) {
	assert.Equal(t, errUnavailable, Mark(nil, errUnavailable))
}

func TestIs_StdlibWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load request: %w", Mark(errors.New("timeout"), errUnavailable))
	assert.True(t, Is(wrapped, errUnavailable))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrapf(errUnavailable, "store %s", "redis")
	assert.True(t, Is(err, errUnavailable))
	assert.Equal(t, "store redis: unavailable", err.Error())
}

func TestExtractStackLines(t *testing.T) {
	assert.Nil(t, ExtractStackLines(nil, 3))

	lines := ExtractStackLines(New("boom"), 2)
	assert.Len(t, lines, 2)
	assert.Equal(t, "boom", lines[0])
}
