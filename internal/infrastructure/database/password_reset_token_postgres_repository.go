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

type pgxPasswordResetTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPgxPasswordResetTokenRepository creates a new instance of pgxPasswordResetTokenRepository.
func NewPgxPasswordResetTokenRepository(pool *pgxpool.Pool) repository.PasswordResetTokenRepository {
	return &pgxPasswordResetTokenRepository{pool: pool}
}

func (r *pgxPasswordResetTokenRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, email, token, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := querier(ctx, r.pool).Exec(ctx, query,
		token.ID, token.Email, token.Token, token.IsUsed, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to create password reset token: %w", err))
	}
	return nil
}

// DeleteByEmail removes every token for the email, used or not, so a fresh
// request leaves exactly one live token.
func (r *pgxPasswordResetTokenRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE lower(email) = lower($1)`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, email)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to delete password reset tokens: %w", err))
	}
	return tag.RowsAffected(), nil
}

func (r *pgxPasswordResetTokenRepository) FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, email, token, is_used, expires_at, created_at
		FROM password_reset_tokens
		WHERE token = $1`
	t := &models.PasswordResetToken{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, token).Scan(
		&t.ID, &t.Email, &t.Token, &t.IsUsed, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to find password reset token: %w", err))
	}
	return t, nil
}

// MarkUsed consumes the token. The is_used guard makes single-use a
// database-level invariant under concurrent resets.
func (r *pgxPasswordResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE password_reset_tokens SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to mark password reset token used: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTokenUsed
	}
	return nil
}

func (r *pgxPasswordResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, now)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to delete expired password reset tokens: %w", err))
	}
	return tag.RowsAffected(), nil
}

var _ repository.PasswordResetTokenRepository = (*pgxPasswordResetTokenRepository)(nil)
