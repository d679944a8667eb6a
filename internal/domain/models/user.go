package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the users table. PasswordHash is nil for accounts that were
// provisioned without a password (OTP-only); such accounts can never pass a
// password check.
type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Email               string     `json:"email" db:"email"`
	FirstName           string     `json:"first_name" db:"first_name"`
	LastName            string     `json:"last_name" db:"last_name"`
	PasswordHash        *string    `json:"-" db:"password_hash"`
	FailedLoginAttempts int        `json:"-" db:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"-" db:"account_locked_until"`
	PasswordChangedAt   *time.Time `json:"password_changed_at,omitempty" db:"password_changed_at"`
	IsVerified          bool       `json:"is_verified" db:"is_verified"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsLockedAt reports whether the account is locked out at the given instant.
func (u *User) IsLockedAt(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}
