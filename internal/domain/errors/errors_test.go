package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapStorage(t *testing.T) {
	assert.Nil(t, WrapStorage(nil))

	cause := stderrors.New("connection refused")
	wrapped := WrapStorage(cause)
	assert.ErrorIs(t, wrapped, ErrStorage)
	assert.True(t, IsStorage(wrapped))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppErrorUnwrap(t *testing.T) {
	appErr := NewAppError(ErrAccountLocked, "account is locked", CodeLocked)
	assert.ErrorIs(t, appErr, ErrAccountLocked)
	assert.Equal(t, CodeLocked, appErr.Code)
	assert.Contains(t, appErr.Error(), "account is locked")

	bare := NewAppError(nil, "something went wrong", CodeInternal)
	assert.Equal(t, "something went wrong", bare.Error())
	assert.Nil(t, stderrors.Unwrap(bare))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(ErrSessionNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.False(t, IsNotFound(ErrInvalidCredentials))

	for _, err := range []error{ErrInvalidCredentials, ErrCodeInvalid, ErrSessionExpired, ErrTokenExpired, ErrTokenUsed} {
		assert.True(t, IsUnauthorized(err), err.Error())
	}
	assert.False(t, IsUnauthorized(ErrNotFound))

	assert.True(t, IsConflict(ErrAlreadyExists))
	assert.True(t, IsConflict(ErrPasswordReuse))
	assert.False(t, IsConflict(ErrPasswordTooWeak))
}
