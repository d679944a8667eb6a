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

type pgxOTPCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPgxOTPCodeRepository creates a new instance of pgxOTPCodeRepository.
func NewPgxOTPCodeRepository(pool *pgxpool.Pool) repository.OTPCodeRepository {
	return &pgxOTPCodeRepository{pool: pool}
}

func (r *pgxOTPCodeRepository) Create(ctx context.Context, code *models.OTPCode) error {
	query := `
		INSERT INTO otp_codes (id, email, code, code_type, delivery_method, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := querier(ctx, r.pool).Exec(ctx, query,
		code.ID, code.Email, code.Code, code.Purpose, code.DeliveryMethod,
		code.IsUsed, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to create otp code: %w", err))
	}
	return nil
}

func (r *pgxOTPCodeRepository) DeleteActive(ctx context.Context, email string, purpose models.OTPPurpose) (int64, error) {
	query := `
		DELETE FROM otp_codes
		WHERE lower(email) = lower($1) AND code_type = $2 AND is_used = FALSE AND expires_at > NOW()`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, email, purpose)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to delete active otp codes: %w", err))
	}
	return tag.RowsAffected(), nil
}

// FindActive selects the most recent live code; the ORDER BY is a second
// line of defense should more than one live code ever exist.
func (r *pgxOTPCodeRepository) FindActive(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPCode, error) {
	query := `
		SELECT id, email, code, code_type, delivery_method, is_used, expires_at, created_at
		FROM otp_codes
		WHERE lower(email) = lower($1) AND code_type = $2 AND is_used = FALSE AND expires_at > NOW()
		ORDER BY created_at DESC LIMIT 1`
	code := &models.OTPCode{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, email, purpose).Scan(
		&code.ID, &code.Email, &code.Code, &code.Purpose, &code.DeliveryMethod,
		&code.IsUsed, &code.ExpiresAt, &code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to find active otp code: %w", err))
	}
	return code, nil
}

func (r *pgxOTPCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE otp_codes SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to mark otp code used: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pgxOTPCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM otp_codes WHERE expires_at < $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, now)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to delete expired otp codes: %w", err))
	}
	return tag.RowsAffected(), nil
}

var _ repository.OTPCodeRepository = (*pgxOTPCodeRepository)(nil)
