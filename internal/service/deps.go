// Package service implements the credential and session lifecycle core:
// session minting and validation, one-time codes, lockout, password
// history, and the password reset flow. HTTP handlers consume these
// services; no transport types appear below this layer.
package service

import (
	"context"
	"time"
)

// PasswordHasher is the slow salted hash used for login verification and
// password-history comparison. Implemented by security.Argon2idHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, encodedHash string) (bool, error)
}

// RateLimiter throttles abuse-prone request classes. Implemented by
// rate.Limiter; tests substitute a stub.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error)
}
