package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/metrics"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/random"
)

// PasswordResetService issues single-use, time-boxed reset tokens and
// finalizes password changes. It bypasses the session check entirely but
// still consults password history before committing a new hash.
//
// Callers shape the API response for unknown emails: RequestReset returns
// ErrNotFound and the HTTP layer answers success regardless, so the
// endpoint leaks no account existence signal.
type PasswordResetService struct {
	tokens    repository.PasswordResetTokenRepository
	users     repository.UserRepository
	history   *PasswordHistoryService
	hasher    PasswordHasher
	policy    *PasswordPolicy
	tx        repository.TxManager
	limiter   RateLimiter
	publisher events.Publisher
	logger    *zap.Logger
	resetCfg  config.ResetConfig
	rlCfg     config.RateLimitConfig
}

// NewPasswordResetService creates a PasswordResetService.
func NewPasswordResetService(
	tokens repository.PasswordResetTokenRepository,
	users repository.UserRepository,
	history *PasswordHistoryService,
	hasher PasswordHasher,
	policy *PasswordPolicy,
	tx repository.TxManager,
	limiter RateLimiter,
	publisher events.Publisher,
	logger *zap.Logger,
	resetCfg config.ResetConfig,
	rlCfg config.RateLimitConfig,
) *PasswordResetService {
	return &PasswordResetService{
		tokens:    tokens,
		users:     users,
		history:   history,
		hasher:    hasher,
		policy:    policy,
		tx:        tx,
		limiter:   limiter,
		publisher: publisher,
		logger:    logger,
		resetCfg:  resetCfg,
		rlCfg:     rlCfg,
	}
}

// RequestReset issues a fresh token for the email, superseding any prior
// one: old tokens are deleted in the same transaction as the insert, so at
// most one live token exists per email. Returns ErrNotFound for unknown
// emails; the caller decides the response shape.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := s.limiter.Allow(ctx, "reset_request:"+email, s.rlCfg.ResetReqLimit, s.rlCfg.ResetReqPeriod)
	if err != nil {
		s.logger.Error("reset request rate limiter failed", zap.Error(err), zap.String("email", email))
	}
	if !allowed {
		metrics.PasswordResetRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, domainErrors.ErrRateLimitExceeded
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			metrics.PasswordResetRequestsTotal.WithLabelValues("unknown_email").Inc()
		}
		return nil, err
	}

	value, err := random.Token()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &models.PasswordResetToken{
		ID:        uuid.New(),
		Email:     email,
		Token:     value,
		ExpiresAt: now.Add(s.resetCfg.TokenTTL),
		CreatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.tokens.DeleteByEmail(ctx, email); err != nil {
			return err
		}
		return s.tokens.Create(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	metrics.PasswordResetRequestsTotal.WithLabelValues("success").Inc()
	if err := s.publisher.Publish(ctx, events.PasswordResetRequestedV1, email, events.PasswordResetPayload{
		Email: email,
		At:    now,
	}); err != nil {
		s.logger.Error("failed to publish reset requested event", zap.Error(err))
	}
	return token, nil
}

// VerifyToken returns the email bound to a live token without consuming
// it, so the "set new password" page can be reloaded freely. Missing,
// used, and expired tokens all come back as ErrNotFound.
func (s *PasswordResetService) VerifyToken(ctx context.Context, tokenValue string) (string, error) {
	token, err := s.tokens.FindByToken(ctx, tokenValue)
	if err != nil {
		return "", err
	}
	if !token.IsLive(time.Now().UTC()) {
		return "", domainErrors.ErrNotFound
	}
	return token.Email, nil
}

// PurgeExpired deletes expired tokens. Verification already ignores them;
// this is housekeeping only.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now().UTC())
}

// CompleteReset finalizes the password change in one transaction: the
// token is consumed, the user's hash and password_changed_at are updated,
// and the new hash is appended to history with pruning. Any failure rolls
// the whole sequence back, leaving the token unconsumed so the user can
// retry without re-requesting a reset email.
func (s *PasswordResetService) CompleteReset(ctx context.Context, email, newPlaintext, tokenValue string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.policy.Validate(newPlaintext); err != nil {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("weak_password").Inc()
		return err
	}

	token, err := s.tokens.FindByToken(ctx, tokenValue)
	if err != nil {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("invalid_token").Inc()
		return err
	}
	if token.Email != email || !token.IsLive(time.Now().UTC()) {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("invalid_token").Inc()
		return domainErrors.ErrNotFound
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	used, err := s.history.WasRecentlyUsed(ctx, user.ID, newPlaintext)
	if err != nil {
		return err
	}
	if used {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("password_reuse").Inc()
		return domainErrors.ErrPasswordReuse
	}

	hash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
			return err
		}
		if err := s.users.OverwritePassword(ctx, user.ID, hash, now); err != nil {
			return err
		}
		return s.history.Record(ctx, user.ID, hash)
	})
	if err != nil {
		metrics.PasswordResetsCompletedTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.PasswordResetsCompletedTotal.WithLabelValues("success").Inc()
	if err := s.publisher.Publish(ctx, events.PasswordResetCompletedV1, email, events.PasswordResetPayload{
		Email: email,
		At:    now,
	}); err != nil {
		s.logger.Error("failed to publish reset completed event", zap.Error(err))
	}
	return nil
}
