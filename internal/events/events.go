// Package events defines the security events the credential core emits and
// the publisher contract transports implement. Publishing is best-effort:
// callers log failures and never fail the user-facing operation on them.
package events

import (
	"context"
	"time"
)

type EventType string

const (
	UserLoginSucceededV1     EventType = "health.auth.user.login_succeeded.v1"
	UserLoginFailedV1        EventType = "health.auth.user.login_failed.v1"
	UserAccountLockedV1      EventType = "health.auth.user.account_locked.v1"
	SessionRevokedV1         EventType = "health.auth.session.revoked.v1"
	OTPIssuedV1              EventType = "health.auth.otp.issued.v1"
	PasswordResetRequestedV1 EventType = "health.auth.password.reset_requested.v1"
	PasswordResetCompletedV1 EventType = "health.auth.password.reset_completed.v1"
)

// Publisher sends a domain event. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, subject string, payload any) error
}

// NopPublisher discards events; used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType EventType, subject string, payload any) error {
	return nil
}

type LoginFailedPayload struct {
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	At        time.Time `json:"at"`
}

type LoginSucceededPayload struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	At        time.Time `json:"at"`
}

type AccountLockedPayload struct {
	UserID      string    `json:"user_id"`
	LockedUntil time.Time `json:"locked_until"`
	Attempts    int       `json:"attempts"`
	At          time.Time `json:"at"`
}

type SessionRevokedPayload struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

type OTPIssuedPayload struct {
	Email   string    `json:"email"`
	Purpose string    `json:"purpose"`
	At      time.Time `json:"at"`
}

type PasswordResetPayload struct {
	Email string    `json:"email"`
	At    time.Time `json:"at"`
}
