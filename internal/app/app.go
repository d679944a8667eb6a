// Package app aggregates the credential-core services behind the surface
// the handler layer consumes. Inputs are plain values and outputs plain
// structs or errors; nothing transport-specific appears here.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/service"
)

// App is the assembled credential and session lifecycle core.
type App struct {
	Sessions    *service.SessionService
	OTP         *service.OTPService
	Lockout     *service.LockoutService
	Credentials *service.CredentialService
	History     *service.PasswordHistoryService
	Reset       *service.PasswordResetService
	Login       *service.LoginService
	Policy      *service.PasswordPolicy
}

// CheckPasswordStrength runs the stateless policy check without touching
// any account state.
func (a *App) CheckPasswordStrength(password string) error {
	return a.Policy.Validate(password)
}

// CheckEmailSyntax validates email shape before any lookup happens.
func (a *App) CheckEmailSyntax(email string) error {
	return a.Policy.ValidateEmail(email)
}

// CreateSession mints a session token for an already-authenticated user.
func (a *App) CreateSession(ctx context.Context, userID uuid.UUID, clientIP, userAgent string, ttl time.Duration) (*models.Session, error) {
	return a.Sessions.Create(ctx, userID, clientIP, userAgent, ttl)
}

// ValidateSession checks a bearer token, bumping the sliding expiry.
func (a *App) ValidateSession(ctx context.Context, token string) (*models.User, *models.Session, error) {
	return a.Sessions.Validate(ctx, token)
}

// InvalidateSession revokes a session; revoking a dead session is a no-op.
func (a *App) InvalidateSession(ctx context.Context, token string) error {
	return a.Sessions.Invalidate(ctx, token)
}

// ListActiveSessions returns the user's live sessions, marking the current one.
func (a *App) ListActiveSessions(ctx context.Context, userID uuid.UUID, currentToken string) ([]models.SessionInfo, error) {
	return a.Sessions.ListActive(ctx, userID, currentToken)
}

// IssueOTP generates and stores a one-time code; delivery is the caller's job.
func (a *App) IssueOTP(ctx context.Context, email string, purpose models.OTPPurpose, method models.DeliveryMethod, expiry time.Duration) (*models.OTPCode, error) {
	return a.OTP.Issue(ctx, email, purpose, method, expiry)
}

// VerifyOTP checks a candidate code, consuming it on match.
func (a *App) VerifyOTP(ctx context.Context, email, code string, purpose models.OTPPurpose, clientIP, userAgent string) (*service.OTPVerifyResult, error) {
	return a.OTP.Verify(ctx, email, code, purpose, clientIP, userAgent)
}

// VerifyPassword runs the slow-hash comparison for a user.
func (a *App) VerifyPassword(ctx context.Context, userID uuid.UUID, candidate string) (bool, error) {
	return a.Credentials.VerifyPassword(ctx, userID, candidate)
}

// SetPassword sets a password for an account that has none; accounts with
// an existing hash must go through the reset flow instead.
func (a *App) SetPassword(ctx context.Context, userID uuid.UUID, plaintext string) error {
	return a.Credentials.SetPassword(ctx, userID, plaintext)
}

// RecordLoginFailure bumps the failure counter, locking at the threshold.
func (a *App) RecordLoginFailure(ctx context.Context, userID uuid.UUID) (*service.LockoutResult, error) {
	return a.Lockout.RecordFailure(ctx, userID)
}

// RecordLoginSuccess clears the failure counter and any lock.
func (a *App) RecordLoginSuccess(ctx context.Context, userID uuid.UUID) error {
	return a.Lockout.RecordSuccess(ctx, userID)
}

// IsAccountLocked reports whether the account is locked out right now.
func (a *App) IsAccountLocked(ctx context.Context, userID uuid.UUID) (bool, error) {
	return a.Lockout.IsLocked(ctx, userID)
}

// RequestPasswordReset issues a reset token, superseding any prior one.
func (a *App) RequestPasswordReset(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	return a.Reset.RequestReset(ctx, email)
}

// VerifyResetToken checks a token without consuming it.
func (a *App) VerifyResetToken(ctx context.Context, token string) (string, error) {
	return a.Reset.VerifyToken(ctx, token)
}

// CompletePasswordReset finalizes a reset transactionally.
func (a *App) CompletePasswordReset(ctx context.Context, email, newPassword, token string) error {
	return a.Reset.CompleteReset(ctx, email, newPassword, token)
}

// WasPasswordRecentlyUsed checks a plaintext candidate against history.
func (a *App) WasPasswordRecentlyUsed(ctx context.Context, userID uuid.UUID, candidate string) (bool, error) {
	return a.History.WasRecentlyUsed(ctx, userID, candidate)
}

// PasswordLogin runs the full password authentication flow.
func (a *App) PasswordLogin(ctx context.Context, email, password, clientIP, userAgent string) (*models.User, *models.Session, error) {
	return a.Login.PasswordLogin(ctx, email, password, clientIP, userAgent)
}

// OTPLogin runs the passwordless authentication flow.
func (a *App) OTPLogin(ctx context.Context, email, code string, purpose models.OTPPurpose, clientIP, userAgent string) (*models.User, *models.Session, error) {
	return a.Login.OTPLogin(ctx, email, code, purpose, clientIP, userAgent)
}

// PurgeExpired removes expired OTP codes and reset tokens and deactivates
// sessions past their absolute lifetime. No validity decision depends on
// this; it only keeps the tables from growing.
func (a *App) PurgeExpired(ctx context.Context) error {
	if _, err := a.OTP.PurgeExpired(ctx); err != nil {
		return err
	}
	if _, err := a.Reset.PurgeExpired(ctx); err != nil {
		return err
	}
	_, err := a.Sessions.PurgeExpired(ctx)
	return err
}
