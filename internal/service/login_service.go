package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/metrics"
)

// LoginService composes the credential checks into the two authentication
// flows: password login and OTP (passwordless) login. Failures that could
// leak account existence all surface as ErrInvalidCredentials; lockout is
// the deliberate exception since it is not secret-sensitive.
type LoginService struct {
	users       repository.UserRepository
	attempts    repository.AttemptRepository
	credentials *CredentialService
	lockout     *LockoutService
	otp         *OTPService
	sessions    *SessionService
	limiter     RateLimiter
	publisher   events.Publisher
	logger      *zap.Logger
	sessionCfg  config.SessionConfig
	rlCfg       config.RateLimitConfig
}

// NewLoginService creates a LoginService.
func NewLoginService(
	users repository.UserRepository,
	attempts repository.AttemptRepository,
	credentials *CredentialService,
	lockout *LockoutService,
	otp *OTPService,
	sessions *SessionService,
	limiter RateLimiter,
	publisher events.Publisher,
	logger *zap.Logger,
	sessionCfg config.SessionConfig,
	rlCfg config.RateLimitConfig,
) *LoginService {
	return &LoginService{
		users:       users,
		attempts:    attempts,
		credentials: credentials,
		lockout:     lockout,
		otp:         otp,
		sessions:    sessions,
		limiter:     limiter,
		publisher:   publisher,
		logger:      logger,
		sessionCfg:  sessionCfg,
		rlCfg:       rlCfg,
	}
}

// PasswordLogin adjudicates a password attempt and mints a session on
// success. A locked account fails with ErrAccountLocked even when the
// password is correct, and no session is created.
func (s *LoginService) PasswordLogin(ctx context.Context, email, password, clientIP, userAgent string) (*models.User, *models.Session, error) {
	allowed, err := s.limiter.Allow(ctx, "login_ip:"+clientIP, s.rlCfg.LoginIPLimit, s.rlCfg.LoginIPPeriod)
	if err != nil {
		s.logger.Error("login rate limiter failed", zap.Error(err), zap.String("ip", clientIP))
	}
	if !allowed {
		return nil, nil, domainErrors.ErrRateLimitExceeded
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			s.recordLoginAttempt(ctx, email, false, clientIP, userAgent)
			metrics.LoginAttemptsTotal.WithLabelValues("failure_unknown_user").Inc()
			return nil, nil, domainErrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	now := time.Now().UTC()
	if user.IsLockedAt(now) {
		s.logger.Warn("login attempt for locked account",
			zap.String("user_id", user.ID.String()),
			zap.Timep("locked_until", user.AccountLockedUntil))
		s.recordLoginAttempt(ctx, email, false, clientIP, userAgent)
		metrics.LoginAttemptsTotal.WithLabelValues("failure_locked").Inc()
		return nil, nil, domainErrors.ErrAccountLocked
	}

	match, err := s.credentials.VerifyPassword(ctx, user.ID, password)
	if err != nil {
		return nil, nil, err
	}

	if !match {
		s.recordLoginAttempt(ctx, email, false, clientIP, userAgent)
		lockResult, lockErr := s.lockout.RecordFailure(ctx, user.ID)
		if lockErr != nil {
			s.logger.Error("failed to record login failure",
				zap.Error(lockErr), zap.String("user_id", user.ID.String()))
		}
		s.publishLoginFailed(ctx, email, "invalid_credentials", clientIP, userAgent)
		if lockResult != nil && lockResult.Locked {
			metrics.LoginAttemptsTotal.WithLabelValues("failure_locked").Inc()
			return nil, nil, domainErrors.ErrAccountLocked
		}
		metrics.LoginAttemptsTotal.WithLabelValues("failure_credentials").Inc()
		return nil, nil, domainErrors.ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset lockout counter",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	s.recordLoginAttempt(ctx, email, true, clientIP, userAgent)

	session, err := s.sessions.Create(ctx, user.ID, clientIP, userAgent, s.sessionCfg.DefaultTTL)
	if err != nil {
		return nil, nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	if err := s.publisher.Publish(ctx, events.UserLoginSucceededV1, user.ID.String(), events.LoginSucceededPayload{
		UserID:    user.ID.String(),
		SessionID: session.ID.String(),
		IPAddress: clientIP,
		At:        time.Now().UTC(),
	}); err != nil {
		s.logger.Error("failed to publish login succeeded event", zap.Error(err))
	}
	return user, session, nil
}

// OTPLogin authenticates with a one-time code; this is the only path for
// accounts without a password hash. Signup-purpose logins get the longer
// signup session TTL.
func (s *LoginService) OTPLogin(ctx context.Context, email, code string, purpose models.OTPPurpose, clientIP, userAgent string) (*models.User, *models.Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			// Run verification anyway so response timing does not reveal
			// whether the account exists.
			_, _ = s.otp.Verify(ctx, email, code, purpose, clientIP, userAgent)
			return nil, nil, domainErrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.IsLockedAt(time.Now().UTC()) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure_locked").Inc()
		return nil, nil, domainErrors.ErrAccountLocked
	}

	result, err := s.otp.Verify(ctx, email, code, purpose, clientIP, userAgent)
	if err != nil {
		return nil, nil, err
	}
	if !result.Valid {
		metrics.LoginAttemptsTotal.WithLabelValues("failure_otp").Inc()
		return nil, nil, domainErrors.ErrInvalidCredentials
	}

	// A consumed code proves mailbox control.
	if !user.IsVerified {
		if err := s.users.SetVerified(ctx, user.ID); err != nil {
			s.logger.Error("failed to mark user verified",
				zap.Error(err), zap.String("user_id", user.ID.String()))
		} else {
			user.IsVerified = true
		}
	}

	ttl := s.sessionCfg.DefaultTTL
	if purpose == models.OTPPurposeSignup {
		ttl = s.sessionCfg.SignupTTL
	}

	session, err := s.sessions.Create(ctx, user.ID, clientIP, userAgent, ttl)
	if err != nil {
		return nil, nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return user, session, nil
}

func (s *LoginService) recordLoginAttempt(ctx context.Context, email string, success bool, clientIP, userAgent string) {
	attempt := &models.VerificationAttempt{
		ID:           uuid.New(),
		Email:        email,
		AttemptType:  models.AttemptTypeLogin,
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
		s.logger.Error("failed to record login attempt", zap.Error(err), zap.String("email", email))
	}
}

func (s *LoginService) publishLoginFailed(ctx context.Context, email, reason, clientIP, userAgent string) {
	if err := s.publisher.Publish(ctx, events.UserLoginFailedV1, email, events.LoginFailedPayload{
		Email:     email,
		Reason:    reason,
		IPAddress: clientIP,
		UserAgent: userAgent,
		At:        time.Now().UTC(),
	}); err != nil {
		s.logger.Error("failed to publish login failed event", zap.Error(err))
	}
}
