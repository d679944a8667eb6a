package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/metrics"
)

// CredentialService owns password verification and first-time password
// setup. Accounts without a stored hash are OTP-only and can never pass a
// password check.
type CredentialService struct {
	users   repository.UserRepository
	history *PasswordHistoryService
	hasher  PasswordHasher
	policy  *PasswordPolicy
	tx      repository.TxManager
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(
	users repository.UserRepository,
	history *PasswordHistoryService,
	hasher PasswordHasher,
	policy *PasswordPolicy,
	tx repository.TxManager,
) *CredentialService {
	return &CredentialService{users: users, history: history, hasher: hasher, policy: policy, tx: tx}
}

// VerifyPassword compares candidate against the user's stored hash using
// the slow hasher. A user with no hash always fails.
func (s *CredentialService) VerifyPassword(ctx context.Context, userID uuid.UUID, candidate string) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.HasPassword() {
		return false, nil
	}

	start := time.Now()
	match, err := s.hasher.Compare(candidate, *user.PasswordHash)
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return false, err
	}
	return match, nil
}

// SetPassword sets a password for an account that has none (the "set up
// password" flow for legacy/OTP-only users). It fails with ErrAlreadyExists
// when a hash is already present; the reset flow handles overwrites.
func (s *CredentialService) SetPassword(ctx context.Context, userID uuid.UUID, plaintext string) error {
	if err := s.policy.Validate(plaintext); err != nil {
		return err
	}

	used, err := s.history.WasRecentlyUsed(ctx, userID, plaintext)
	if err != nil {
		return err
	}
	if used {
		return domainErrors.ErrPasswordReuse
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.SetInitialPassword(ctx, userID, hash, time.Now().UTC()); err != nil {
			return err
		}
		return s.history.Record(ctx, userID, hash)
	})
}
