package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a row in user_sessions. The token is an opaque bearer
// credential; IP address and user agent are recorded for audit only and
// never participate in validation.
type Session struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Token        string    `json:"-" db:"session_token"`
	IPAddress    *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    *string   `json:"user_agent,omitempty" db:"user_agent"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastAccessed time.Time `json:"last_accessed" db:"last_accessed"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
}

// IsUsable reports whether the session may authenticate a request at the
// given instant: it must be active, inside its absolute lifetime, and not
// idle longer than the inactivity window.
func (s *Session) IsUsable(now time.Time, inactivityWindow time.Duration) bool {
	if !s.IsActive {
		return false
	}
	if !now.Before(s.ExpiresAt) {
		return false
	}
	return now.Sub(s.LastAccessed) < inactivityWindow
}

// IdleExpired reports whether the session failed only the inactivity check,
// which is the case where lazy cleanup wants to mark it inactive.
func (s *Session) IdleExpired(now time.Time, inactivityWindow time.Duration) bool {
	return s.IsActive && now.Before(s.ExpiresAt) && now.Sub(s.LastAccessed) >= inactivityWindow
}

// SessionInfo is the self-service view of a session returned by listing.
type SessionInfo struct {
	ID           uuid.UUID `json:"id"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	ExpiresAt    time.Time `json:"expires_at"`
	Current      bool      `json:"current"`
}
