// Package repository defines the persistence contracts consumed by the
// service layer. Implementations live in internal/infrastructure/database.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
)

// UserRepository owns the users table.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// SetInitialPassword sets password_hash only when none exists yet.
	// Returns ErrAlreadyExists when a hash is already present.
	SetInitialPassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error

	// OverwritePassword unconditionally replaces the hash; used by the
	// reset flow.
	OverwritePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error

	// IncrementFailedLoginAttempts bumps the counter in a single atomic
	// statement and returns the new value.
	IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID) (int, error)
	ResetFailedLoginAttempts(ctx context.Context, id uuid.UUID) error
	UpdateLockout(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error

	SetVerified(ctx context.Context, id uuid.UUID) error
}

// SessionRepository owns the user_sessions table.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	UpdateLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error

	// Deactivate is idempotent: deactivating an already-inactive session
	// is not an error.
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Session, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// OTPCodeRepository owns the otp_codes table.
type OTPCodeRepository interface {
	Create(ctx context.Context, code *models.OTPCode) error

	// DeleteActive removes unused, unexpired codes for (email, purpose) so
	// a fresh issue leaves exactly one live code.
	DeleteActive(ctx context.Context, email string, purpose models.OTPPurpose) (int64, error)

	// FindActive returns the newest unused, unexpired code for
	// (email, purpose), or ErrNotFound.
	FindActive(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPCode, error)

	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordResetTokenRepository owns the password_reset_tokens table.
type PasswordResetTokenRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)

	// MarkUsed consumes the token; it fails with ErrTokenUsed if the token
	// was already consumed.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHistoryRepository owns the password_history table.
type PasswordHistoryRepository interface {
	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PasswordHistoryEntry, error)

	// RecordAndPrune appends the new hash and removes all but the most
	// recent keep rows for the user.
	RecordAndPrune(ctx context.Context, userID uuid.UUID, hash string, keep int) error
}

// AttemptRepository owns the append-only verification_attempts table.
type AttemptRepository interface {
	Record(ctx context.Context, attempt *models.VerificationAttempt) error
	CountFailedSince(ctx context.Context, email string, attemptType models.AttemptType, since time.Time) (int, error)
}

// TxManager runs a function inside a database transaction. Repositories
// participate in the transaction through the context.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
