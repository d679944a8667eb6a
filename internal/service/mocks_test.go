package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/repository"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
)

var (
	_ repository.UserRepository               = (*MockUserRepository)(nil)
	_ repository.SessionRepository            = (*MockSessionRepository)(nil)
	_ repository.OTPCodeRepository            = (*MockOTPCodeRepository)(nil)
	_ repository.PasswordResetTokenRepository = (*MockPasswordResetTokenRepository)(nil)
	_ repository.PasswordHistoryRepository    = (*MockPasswordHistoryRepository)(nil)
	_ repository.AttemptRepository            = (*MockAttemptRepository)(nil)
	_ repository.TxManager                    = fakeTxManager{}
	_ events.Publisher                        = (*capturingPublisher)(nil)
	_ PasswordHasher                          = fakeHasher{}
	_ RateLimiter                             = allowAllLimiter{}
)

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SetInitialPassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	return m.Called(ctx, id, hash, changedAt).Error(0)
}

func (m *MockUserRepository) OverwritePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error {
	return m.Called(ctx, id, hash, changedAt).Error(0)
}

func (m *MockUserRepository) IncrementFailedLoginAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) ResetFailedLoginAttempts(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) UpdateLockout(ctx context.Context, id uuid.UUID, lockedUntil *time.Time) error {
	return m.Called(ctx, id, lockedUntil).Error(0)
}

func (m *MockUserRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSessionRepository struct{ mock.Mock }

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateLastAccessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockSessionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockOTPCodeRepository struct{ mock.Mock }

func (m *MockOTPCodeRepository) Create(ctx context.Context, code *models.OTPCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockOTPCodeRepository) DeleteActive(ctx context.Context, email string, purpose models.OTPPurpose) (int64, error) {
	args := m.Called(ctx, email, purpose)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOTPCodeRepository) FindActive(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTPCode, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OTPCode), args.Error(1)
}

func (m *MockOTPCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOTPCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockPasswordResetTokenRepository struct{ mock.Mock }

func (m *MockPasswordResetTokenRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockPasswordResetTokenRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPasswordResetTokenRepository) FindByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordResetToken), args.Error(1)
}

func (m *MockPasswordResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPasswordResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockPasswordHistoryRepository struct{ mock.Mock }

func (m *MockPasswordHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PasswordHistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PasswordHistoryEntry), args.Error(1)
}

func (m *MockPasswordHistoryRepository) RecordAndPrune(ctx context.Context, userID uuid.UUID, hash string, keep int) error {
	return m.Called(ctx, userID, hash, keep).Error(0)
}

type MockAttemptRepository struct{ mock.Mock }

func (m *MockAttemptRepository) Record(ctx context.Context, attempt *models.VerificationAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockAttemptRepository) CountFailedSince(ctx context.Context, email string, attemptType models.AttemptType, since time.Time) (int, error) {
	args := m.Called(ctx, email, attemptType, since)
	return args.Int(0), args.Error(1)
}

// fakeTxManager runs the function directly; the repositories under test
// are mocks, so there is nothing to roll back.
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeHasher is a deterministic stand-in for the argon2id hasher so
// service tests stay fast. Hash marks the plaintext; Compare reverses it.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(password, encodedHash string) (bool, error) {
	return encodedHash == "hashed:"+password, nil
}

// allowAllLimiter never throttles.
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	return true, nil
}

// denyAllLimiter always throttles.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	return false, nil
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu    sync.Mutex
	types []events.EventType
}

func (p *capturingPublisher) Publish(ctx context.Context, eventType events.EventType, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	return nil
}

func (p *capturingPublisher) published(t events.EventType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, et := range p.types {
		if et == t {
			return true
		}
	}
	return false
}
