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
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/random"
)

// SessionService mints, validates, lists, and revokes session tokens.
// Expiry is dual: an absolute ceiling fixed at creation, and an inactivity
// window that revokes idle sessions sooner. Both are checked at validation
// time; there is no background sweep.
type SessionService struct {
	sessions  repository.SessionRepository
	users     repository.UserRepository
	publisher events.Publisher
	logger    *zap.Logger
	cfg       config.SessionConfig
}

// NewSessionService creates a SessionService.
func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	cfg config.SessionConfig,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		users:     users,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create mints a session with the given absolute lifetime. A non-positive
// ttl falls back to the configured default. Client IP and user agent are
// stored for audit only.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, clientIP, userAgent string, ttl time.Duration) (*models.Session, error) {
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	token, err := random.Token()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:           uuid.New(),
		UserID:       userID,
		Token:        token,
		IsActive:     true,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(ttl),
	}
	if clientIP != "" {
		session.IPAddress = &clientIP
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.SessionsCreatedTotal.Inc()
	return session, nil
}

// Validate checks a token and returns the owning user on success, bumping
// last_accessed (sliding expiry). The validity decision is computed purely
// from the stored row; the lazy deactivation of an idle-expired session is
// a separate best-effort write whose failure cannot change the result.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSessionNotFound) {
			metrics.SessionValidationsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, nil, err
	}

	now := time.Now().UTC()
	if !session.IsUsable(now, s.cfg.InactivityWindow) {
		if session.IdleExpired(now, s.cfg.InactivityWindow) {
			// Lazy cleanup; an error here is an optimization miss, not a
			// validation failure.
			if errDeact := s.sessions.Deactivate(ctx, session.ID); errDeact != nil {
				s.logger.Warn("failed to deactivate idle session",
					zap.Error(errDeact), zap.String("session_id", session.ID.String()))
			}
		}
		metrics.SessionValidationsTotal.WithLabelValues("expired").Inc()
		return nil, nil, domainErrors.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sessions.UpdateLastAccessed(ctx, session.ID, now); err != nil {
		return nil, nil, err
	}
	session.LastAccessed = now

	metrics.SessionValidationsTotal.WithLabelValues("success").Inc()
	return user, session, nil
}

// Invalidate revokes a session by token. Revoking a missing or already
// inactive session is not an error.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessions.Deactivate(ctx, session.ID); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.SessionRevokedV1, session.UserID.String(), events.SessionRevokedPayload{
		UserID:    session.UserID.String(),
		SessionID: session.ID.String(),
		At:        time.Now().UTC(),
	}); err != nil {
		s.logger.Error("failed to publish session revoked event", zap.Error(err))
	}
	return nil
}

// PurgeExpired deactivates sessions past their absolute lifetime. Validation
// never consults this; it only keeps the active set small.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeactivateExpired(ctx, time.Now().UTC())
}

// ListActive returns the user's live sessions for self-service management,
// marking the entry matching currentToken.
func (s *SessionService) ListActive(ctx context.Context, userID uuid.UUID, currentToken string) ([]models.SessionInfo, error) {
	sessions, err := s.sessions.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, models.SessionInfo{
			ID:           session.ID,
			IPAddress:    session.IPAddress,
			UserAgent:    session.UserAgent,
			CreatedAt:    session.CreatedAt,
			LastAccessed: session.LastAccessed,
			ExpiresAt:    session.ExpiresAt,
			Current:      session.Token == currentToken,
		})
	}
	return infos, nil
}
