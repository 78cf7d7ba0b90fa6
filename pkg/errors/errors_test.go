package errors

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("branch not found")
	cause := stderr.New("key missing")

	wrapped := sentinel.Wrap(cause)
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, cause))
	assert.Equal(t, "branch not found: key missing", wrapped.Error())

	// the sentinel itself is not altered by wrapping
	assert.Nil(t, sentinel.Unwrap())
	assert.Equal(t, "branch not found", sentinel.Error())

	rewrapped := wrapped.Wrapf("branch %q", "feature")
	assert.True(t, Is(rewrapped, sentinel))
	assert.False(t, Is(rewrapped, New("branch not found")))

	outer := fmt.Errorf("checkout: %w", rewrapped)
	assert.True(t, Is(outer, sentinel))

	var target *Error
	assert.True(t, As(outer, &target))
	assert.Contains(t, target.Error(), "feature")
}
