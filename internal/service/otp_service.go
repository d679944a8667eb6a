package service

import (
	"context"
	"crypto/subtle"
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

const otpDigits = 6

// OTPVerifyResult reports the outcome of a code verification together with
// the number of failed attempts in the trailing window so callers can
// decide whether to throttle further requests.
type OTPVerifyResult struct {
	Valid            bool
	AttemptsInWindow int
}

// OTPService issues and verifies short-lived numeric codes scoped by
// (email, purpose). Issuance deletes prior active codes so at most one
// live code exists per scope; verification is single-use.
type OTPService struct {
	codes     repository.OTPCodeRepository
	attempts  repository.AttemptRepository
	tx        repository.TxManager
	limiter   RateLimiter
	publisher events.Publisher
	logger    *zap.Logger
	otpCfg    config.OTPConfig
	rlCfg     config.RateLimitConfig
}

// NewOTPService creates an OTPService.
func NewOTPService(
	codes repository.OTPCodeRepository,
	attempts repository.AttemptRepository,
	tx repository.TxManager,
	limiter RateLimiter,
	publisher events.Publisher,
	logger *zap.Logger,
	otpCfg config.OTPConfig,
	rlCfg config.RateLimitConfig,
) *OTPService {
	return &OTPService{
		codes:     codes,
		attempts:  attempts,
		tx:        tx,
		limiter:   limiter,
		publisher: publisher,
		logger:    logger,
		otpCfg:    otpCfg,
		rlCfg:     rlCfg,
	}
}

// Issue generates a fresh 6-digit code for (email, purpose) with the given
// expiry (the configured default when non-positive). Prior active codes
// for the scope are deleted in the same transaction as the insert.
// Delivery of the code happens outside this service.
func (s *OTPService) Issue(ctx context.Context, email string, purpose models.OTPPurpose, method models.DeliveryMethod, expiry time.Duration) (*models.OTPCode, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !purpose.Valid() {
		return nil, fmt.Errorf("%w: unknown otp purpose %q", domainErrors.ErrInvalidInput, purpose)
	}
	if expiry <= 0 {
		expiry = s.otpCfg.DefaultExpiry
	}

	allowed, err := s.limiter.Allow(ctx, "otp_issue:"+email, s.rlCfg.OTPIssueLimit, s.rlCfg.OTPIssuePeriod)
	if err != nil {
		s.logger.Error("otp issue rate limiter failed", zap.Error(err), zap.String("email", email))
	}
	if !allowed {
		return nil, domainErrors.ErrRateLimitExceeded
	}

	value, err := random.NumericCode(otpDigits)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	code := &models.OTPCode{
		ID:             uuid.New(),
		Email:          email,
		Code:           value,
		Purpose:        purpose,
		DeliveryMethod: method,
		ExpiresAt:      now.Add(expiry),
		CreatedAt:      now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.codes.DeleteActive(ctx, email, purpose); err != nil {
			return err
		}
		return s.codes.Create(ctx, code)
	})
	if err != nil {
		return nil, err
	}

	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	if err := s.publisher.Publish(ctx, events.OTPIssuedV1, email, events.OTPIssuedPayload{
		Email:   email,
		Purpose: string(purpose),
		At:      now,
	}); err != nil {
		s.logger.Error("failed to publish otp issued event", zap.Error(err))
	}
	return code, nil
}

// Verify matches candidate against the newest live code for (email,
// purpose). On match the code is consumed; a second verification with the
// same code fails. Expired and absent codes are indistinguishable to the
// caller. The failed-attempt count for the trailing window is always
// returned so callers can throttle.
func (s *OTPService) Verify(ctx context.Context, email, candidate string, purpose models.OTPPurpose, clientIP, userAgent string) (*OTPVerifyResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !purpose.Valid() {
		return nil, fmt.Errorf("%w: unknown otp purpose %q", domainErrors.ErrInvalidInput, purpose)
	}

	attemptType := models.AttemptTypeForOTP(purpose)

	code, err := s.codes.FindActive(ctx, email, purpose)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	matched := false
	if code != nil {
		matched = subtle.ConstantTimeCompare([]byte(code.Code), []byte(candidate)) == 1
	}

	if matched {
		if err := s.codes.MarkUsed(ctx, code.ID); err != nil {
			// A concurrent verify consumed it first; treat as a miss.
			if errors.Is(err, domainErrors.ErrNotFound) {
				matched = false
			} else {
				return nil, err
			}
		}
	}

	s.recordAttempt(ctx, email, attemptType, matched, clientIP, userAgent)

	if matched {
		metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
		return &OTPVerifyResult{Valid: true}, nil
	}

	metrics.OTPVerificationsTotal.WithLabelValues("failure").Inc()
	window := time.Now().UTC().Add(-s.otpCfg.AttemptWindow)
	count, err := s.attempts.CountFailedSince(ctx, email, attemptType, window)
	if err != nil {
		s.logger.Error("failed to count otp attempts", zap.Error(err), zap.String("email", email))
		count = 0
	}
	return &OTPVerifyResult{Valid: false, AttemptsInWindow: count}, nil
}

// PurgeExpired deletes expired codes. Verification already ignores them;
// this is housekeeping only.
func (s *OTPService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, time.Now().UTC())
}

func (s *OTPService) recordAttempt(ctx context.Context, email string, attemptType models.AttemptType, success bool, clientIP, userAgent string) {
	attempt := &models.VerificationAttempt{
		ID:           uuid.New(),
		Email:        email,
		AttemptType:  attemptType,
		IsSuccessful: success,
		CreatedAt:    time.Now().UTC(),
	}
	if clientIP != "" {
		attempt.IPAddress = &clientIP
	}
	if userAgent != "" {
		attempt.UserAgent = &userAgent
	}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.logger.Error("failed to record verification attempt", zap.Error(err), zap.String("email", email))
	}
}
