package errors

import (
	"errors"
	"fmt"
)

var (
	// General errors.
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrStorage       = errors.New("storage failure")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")

	// Session errors.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// OTP and reset-token errors.
	ErrCodeInvalid  = errors.New("verification code invalid or expired")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenUsed    = errors.New("token already used")

	// Password errors.
	ErrPasswordReuse   = errors.New("password was used recently")
	ErrPasswordTooWeak = errors.New("password does not meet strength requirements")
)

// AppError carries a user-safe message and a machine-readable code
// alongside the wrapped cause.
type AppError struct {
	Err  error
	Msg  string
	Code string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeLocked       = "ACCOUNT_LOCKED"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// NewAppError creates a new application error.
func NewAppError(err error, msg, code string) *AppError {
	return &AppError{Err: err, Msg: msg, Code: code}
}

// WrapStorage tags an underlying database error as a storage failure so
// callers can distinguish transient infrastructure problems from policy
// violations.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// IsNotFound reports whether err is any of the "no such resource" errors.
// OTP and reset-token lookups fold "expired" into "not found" upstream, so
// this is also the enumeration-safe class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsUnauthorized reports whether err should surface as a generic
// authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrCodeInvalid) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenUsed)
}

// IsConflict reports whether err is a conflict with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrPasswordReuse)
}

// IsStorage reports whether err originates in the persistence layer.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
