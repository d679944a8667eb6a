package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
)

const userColumns = `id, email, first_name, last_name, password_hash,
	       failed_login_attempts, account_locked_until, password_changed_at,
	       is_verified, created_at, updated_at`

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxUserRepository creates a new instance of pgxUserRepository.
func NewPgxUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &pgxUserRepository{pool: pool}
}

func (r *pgxUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash,
		                   failed_login_attempts, account_locked_until, password_changed_at,
		                   is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := querier(ctx, r.pool).Exec(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.FailedLoginAttempts, user.AccountLockedUntil, user.PasswordChangedAt,
		user.IsVerified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email already registered", domainErrors.ErrAlreadyExists)
		}
		return domainErrors.WrapStorage(fmt.Errorf("failed to create user: %w", err))
	}
	return nil
}

func (r *pgxUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(querier(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *pgxUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(querier(ctx, r.pool).QueryRow(ctx, query, email))
}

func (r *pgxUserRepository) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.FailedLoginAttempts, &user.AccountLockedUntil, &user.PasswordChangedAt,
		&user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to scan user: %w", err))
	}
	return user, nil
}

// SetInitialPassword only succeeds when no hash is stored yet; the
// "password_hash IS NULL" guard makes the first-time-only rule a single
// atomic statement.
func (r *pgxUserRepository) SetInitialPassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = NOW()
		WHERE id = $1 AND password_hash IS NULL`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id, hash, changedAt)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to set initial password: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: password already set", domainErrors.ErrAlreadyExists)
	}
	return nil
}

func (r *pgxUserRepository) OverwritePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = NOW()
		WHERE id = $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id, hash, changedAt)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to overwrite password: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// IncrementFailedLoginAttempts performs the increment server-side so that
// concurrent failed logins for one account cannot under-count.
func (r *pgxUserRepository) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts`
	var attempts int
	err := querier(ctx, r.pool).QueryRow(ctx, query, id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrNotFound
		}
		return 0, domainErrors.WrapStorage(fmt.Errorf("failed to increment failed login attempts: %w", err))
	}
	return attempts, nil
}

func (r *pgxUserRepository) ResetFailedLoginAttempts(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, account_locked_until = NULL, updated_at = NOW()
		WHERE id = $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to reset failed login attempts: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pgxUserRepository) UpdateLockout(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error {
	query := `
		UPDATE users
		SET account_locked_until = $2, updated_at = NOW()
		WHERE id = $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id, lockedUntil)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to update lockout: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pgxUserRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`
	tag, err := querier(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to mark user verified: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*pgxUserRepository)(nil)
