package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/metrics"
)

// PasswordHistoryService blocks password reuse by comparing candidates
// against the user's retained prior hashes. Comparison always takes the
// candidate plaintext and runs it through the slow hasher; hashes are
// never compared to each other (salts differ).
type PasswordHistoryService struct {
	history repository.PasswordHistoryRepository
	hasher  PasswordHasher
	cfg     config.PasswordConfig
}

// NewPasswordHistoryService creates a PasswordHistoryService.
func NewPasswordHistoryService(
	history repository.PasswordHistoryRepository,
	hasher PasswordHasher,
	cfg config.PasswordConfig,
) *PasswordHistoryService {
	return &PasswordHistoryService{history: history, hasher: hasher, cfg: cfg}
}

// WasRecentlyUsed reports whether candidatePlaintext matches any of the
// user's retained prior hashes.
func (s *PasswordHistoryService) WasRecentlyUsed(ctx context.Context, userID uuid.UUID, candidatePlaintext string) (bool, error) {
	entries, err := s.history.ListRecent(ctx, userID, s.cfg.HistoryDepth)
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		start := time.Now()
		match, err := s.hasher.Compare(candidatePlaintext, entry.PasswordHash)
		metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// Record appends the new hash and prunes the history to the configured
// depth. Callers invoke it inside the transaction that updates the user's
// current hash.
func (s *PasswordHistoryService) Record(ctx context.Context, userID uuid.UUID, newHash string) error {
	return s.history.RecordAndPrune(ctx, userID, newHash, s.cfg.HistoryDepth)
}
