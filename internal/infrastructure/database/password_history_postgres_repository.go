package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
)

type pgxPasswordHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPgxPasswordHistoryRepository creates a new instance of pgxPasswordHistoryRepository.
func NewPgxPasswordHistoryRepository(pool *pgxpool.Pool) repository.PasswordHistoryRepository {
	return &pgxPasswordHistoryRepository{pool: pool}
}

func (r *pgxPasswordHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PasswordHistoryEntry, error) {
	query := `
		SELECT id, user_id, password_hash, created_at
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := querier(ctx, r.pool).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, domainErrors.WrapStorage(fmt.Errorf("failed to list password history: %w", err))
	}
	defer rows.Close()

	var entries []*models.PasswordHistoryEntry
	for rows.Next() {
		entry := &models.PasswordHistoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PasswordHash, &entry.CreatedAt); err != nil {
			return nil, domainErrors.WrapStorage(fmt.Errorf("failed to scan password history entry: %w", err))
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domainErrors.WrapStorage(fmt.Errorf("error iterating password history: %w", err))
	}
	return entries, nil
}

// RecordAndPrune appends the new hash and keeps only the most recent `keep`
// rows, so history never grows unbounded. Callers run it inside the same
// transaction as the password update.
func (r *pgxPasswordHistoryRepository) RecordAndPrune(ctx context.Context, userID uuid.UUID, hash string, keep int) error {
	q := querier(ctx, r.pool)

	insert := `
		INSERT INTO password_history (id, user_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := q.Exec(ctx, insert, uuid.New(), userID, hash, time.Now().UTC()); err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to record password history: %w", err))
	}

	prune := `
		DELETE FROM password_history
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM password_history
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`
	if _, err := q.Exec(ctx, prune, userID, keep); err != nil {
		return domainErrors.WrapStorage(fmt.Errorf("failed to prune password history: %w", err))
	}
	return nil
}

var _ repository.PasswordHistoryRepository = (*pgxPasswordHistoryRepository)(nil)
