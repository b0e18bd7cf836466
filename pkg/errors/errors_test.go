package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(NewRateLimited("slow down", nil)))
	assert.Equal(t, KindAccessDenied, KindOf(NewAccessDenied("private", nil)))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("fetch failed: %w", NewNetwork("connection reset", nil))
	assert.True(t, IsNetwork(err))
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewNetwork("transfer failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "access_denied", KindAccessDenied.String())
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "internal", Kind(999).String())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsTooLarge(NewTooLarge("over ceiling")))
	assert.True(t, IsNotFound(NewNotFound("gone")))
	assert.True(t, IsStaleSelection(NewStaleSelection("expired")))
	assert.False(t, IsTooLarge(NewNotFound("gone")))
}
