package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/metrics"
)

// LockoutResult reports whether a recorded failure tripped the lock.
type LockoutResult struct {
	Locked      bool
	Attempts    int
	LockedUntil *time.Time
}

// LockoutService tracks consecutive failed password attempts per account
// and imposes a timed lock at the threshold. The counter increment happens
// in a single database statement, so concurrent failures for the same
// account cannot under-count.
type LockoutService struct {
	users     repository.UserRepository
	tx        repository.TxManager
	publisher events.Publisher
	logger    *zap.Logger
	cfg       config.LockoutConfig
}

// NewLockoutService creates a LockoutService.
func NewLockoutService(
	users repository.UserRepository,
	tx repository.TxManager,
	publisher events.Publisher,
	logger *zap.Logger,
	cfg config.LockoutConfig,
) *LockoutService {
	return &LockoutService{users: users, tx: tx, publisher: publisher, logger: logger, cfg: cfg}
}

// RecordFailure increments the user's failed-attempt counter and locks the
// account when the threshold is reached. Increment and lock run inside one
// transaction.
func (s *LockoutService) RecordFailure(ctx context.Context, userID uuid.UUID) (*LockoutResult, error) {
	result := &LockoutResult{}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		attempts, err := s.users.IncrementFailedLoginAttempts(ctx, userID)
		if err != nil {
			return err
		}
		result.Attempts = attempts

		if attempts >= s.cfg.MaxFailedAttempts {
			lockedUntil := time.Now().UTC().Add(s.cfg.LockoutDuration)
			if err := s.users.UpdateLockout(ctx, userID, &lockedUntil); err != nil {
				return err
			}
			result.Locked = true
			result.LockedUntil = &lockedUntil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Locked {
		metrics.AccountLockoutsTotal.Inc()
		s.logger.Warn("account locked after repeated failures",
			zap.String("user_id", userID.String()),
			zap.Int("attempts", result.Attempts),
			zap.Timep("locked_until", result.LockedUntil))
		if err := s.publisher.Publish(ctx, events.UserAccountLockedV1, userID.String(), events.AccountLockedPayload{
			UserID:      userID.String(),
			LockedUntil: *result.LockedUntil,
			Attempts:    result.Attempts,
			At:          time.Now().UTC(),
		}); err != nil {
			s.logger.Error("failed to publish account locked event", zap.Error(err))
		}
	}
	return result, nil
}

// RecordSuccess resets the counter and clears any lock.
func (s *LockoutService) RecordSuccess(ctx context.Context, userID uuid.UUID) error {
	return s.users.ResetFailedLoginAttempts(ctx, userID)
}

// IsLocked reports whether the account is currently locked out.
func (s *LockoutService) IsLocked(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsLockedAt(time.Now().UTC()), nil
}
