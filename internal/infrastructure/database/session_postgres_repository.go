package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
)

const sessionColumns = `id, user_id, session_token, ip_address, user_agent,
	       is_active, created_at, last_accessed, expires_at`

type pgxSessionRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSessionRepository creates a new instance of pgxSessionRepository.
func NewPgxSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &pgxSessionRepository{pool: pool}
}

func (r *pgxSessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (id, user_id, session_token, ip_address, user_agent,
		                           is_active, created_at, last_accessed, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := querier(ctx, r.pool).Exec(ctx, query,
		session.ID, session.UserID, session.Token, session.IPAddress, session.UserAgent,
		session.IsActive, session.CreatedAt, session.LastAccessed, session.ExpiresAt,
	)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to create session: %w", err))
	}
	return nil
}

func (r *pgxSessionRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE session_token = $1`
	session := &models.Session{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token, &session.IPAddress, &session.UserAgent,
		&session.IsActive, &session.CreatedAt, &session.LastAccessed, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to find session by token: %w", err))
	}
	return session, nil
}

func (r *pgxSessionRepository) UpdateLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE user_sessions SET last_accessed = $2 WHERE id = $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id, at)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to update session last_accessed: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Deactivate is idempotent: a session that is already inactive stays
// inactive and no error is reported.
func (r *pgxSessionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE id = $1`
	_, err := querier(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to deactivate session: %w", err))
	}
	return nil
}

func (r *pgxSessionRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY last_accessed DESC`
	rows, err := querier(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to list active sessions: %w", err))
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.Token, &session.IPAddress, &session.UserAgent,
			&session.IsActive, &session.CreatedAt, &session.LastAccessed, &session.ExpiresAt,
		); err != nil {
			return nil, domainErrors.WrapStorage(fmt.Errorf("failed to scan session: %w", err))
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, domainErrors.WrapStorage(fmt.Errorf("error iterating sessions: %w", err))
	}
	return sessions, nil
}

func (r *pgxSessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE is_active = TRUE AND expires_at < $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, now)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to deactivate expired sessions: %w", err))
	}
	return tag.RowsAffected(), nil
}

var _ repository.SessionRepository = (*pgxSessionRepository)(nil)
