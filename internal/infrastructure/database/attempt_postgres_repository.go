package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
)

type pgxAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewPgxAttemptRepository creates a new instance of pgxAttemptRepository.
func NewPgxAttemptRepository(pool *pgxpool.Pool) repository.AttemptRepository {
	return &pgxAttemptRepository{pool: pool}
}

// Record inserts an audit row. The table is append-only; rows are never
// updated or deleted by application code.
func (r *pgxAttemptRepository) Record(ctx context.Context, attempt *models.VerificationAttempt) error {
	query := `
		INSERT INTO verification_attempts (id, email, attempt_type, is_successful, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := querier(ctx, r.pool).Exec(ctx, query,
		attempt.ID, attempt.Email, attempt.AttemptType, attempt.IsSuccessful,
		attempt.IPAddress, attempt.UserAgent, attempt.CreatedAt,
	)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to record verification attempt: %w", err))
	}
	return nil
}

func (r *pgxAttemptRepository) CountFailedSince(ctx context.Context, email string, attemptType models.AttemptType, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_attempts
		WHERE lower(email) = lower($1) AND attempt_type = $2 AND is_successful = FALSE AND created_at >= $3`
	var count int
	err := querier(ctx, r.pool).QueryRow(ctx, query, email, attemptType, since).Scan(&count)
	if err != nil {
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to count failed attempts: %w", err))
	}
	return count, nil
}

var _ repository.AttemptRepository = (*pgxAttemptRepository)(nil)
