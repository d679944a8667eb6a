package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken represents a row in password_reset_tokens. At most one
// live token exists per email: issuing a new token deletes any prior one.
type PasswordResetToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Token     string    `json:"-" db:"token"`
	IsUsed    bool      `json:"is_used" db:"is_used"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsLive reports whether the token can still authorize a reset.
func (t *PasswordResetToken) IsLive(now time.Time) bool {
	return !t.IsUsed && now.Before(t.ExpiresAt)
}
