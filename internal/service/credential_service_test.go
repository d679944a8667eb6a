package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
)

func newCredentialService(users *MockUserRepository, history *MockPasswordHistoryRepository) *CredentialService {
	historySvc := NewPasswordHistoryService(history, fakeHasher{}, config.PasswordConfig{HistoryDepth: 5})
	return NewCredentialService(users, historySvc, fakeHasher{}, NewPasswordPolicy(12), fakeTxManager{})
}

func TestCredentialService_VerifyPassword(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	hash := "hashed:Correct-Horse-1!"
	userID := uuid.New()
	users.On("FindByID", mock.Anything, userID).Return(&models.User{ID: userID, PasswordHash: &hash}, nil)

	match, err := svc.VerifyPassword(context.Background(), userID, "Correct-Horse-1!")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = svc.VerifyPassword(context.Background(), userID, "wrong")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCredentialService_VerifyPassword_NoHashNeverMatches(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	userID := uuid.New()
	users.On("FindByID", mock.Anything, userID).Return(&models.User{ID: userID}, nil)

	match, err := svc.VerifyPassword(context.Background(), userID, "anything at all")
	require.NoError(t, err)
	assert.False(t, match)

	// empty string does not match an absent hash either
	match, err = svc.VerifyPassword(context.Background(), userID, "")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCredentialService_SetPassword(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	userID := uuid.New()
	history.On("ListRecent", mock.Anything, userID, 5).Return([]*models.PasswordHistoryEntry{}, nil)
	users.On("SetInitialPassword", mock.Anything, userID, "hashed:Br4nd-New-Secret!", mock.AnythingOfType("time.Time")).Return(nil)
	history.On("RecordAndPrune", mock.Anything, userID, "hashed:Br4nd-New-Secret!", 5).Return(nil)

	require.NoError(t, svc.SetPassword(context.Background(), userID, "Br4nd-New-Secret!"))
	users.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestCredentialService_SetPassword_RejectsWeak(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	err := svc.SetPassword(context.Background(), uuid.New(), "short")
	assert.ErrorIs(t, err, domainErrors.ErrPasswordTooWeak)
	users.AssertNotCalled(t, "SetInitialPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCredentialService_SetPassword_RejectsRecentlyUsed(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	userID := uuid.New()
	history.On("ListRecent", mock.Anything, userID, 5).Return([]*models.PasswordHistoryEntry{
		{ID: uuid.New(), UserID: userID, PasswordHash: "hashed:Old-Secret-99!!", CreatedAt: time.Now().UTC()},
	}, nil)

	err := svc.SetPassword(context.Background(), userID, "Old-Secret-99!!")
	assert.ErrorIs(t, err, domainErrors.ErrPasswordReuse)
	users.AssertNotCalled(t, "SetInitialPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCredentialService_SetPassword_ExistingHashFails(t *testing.T) {
	users := new(MockUserRepository)
	history := new(MockPasswordHistoryRepository)
	svc := newCredentialService(users, history)

	userID := uuid.New()
	history.On("ListRecent", mock.Anything, userID, 5).Return([]*models.PasswordHistoryEntry{}, nil)
	// the repository guard rejects accounts that already have a hash
	users.On("SetInitialPassword", mock.Anything, userID, mock.Anything, mock.AnythingOfType("time.Time")).
		Return(domainErrors.ErrAlreadyExists)

	err := svc.SetPassword(context.Background(), userID, "An0ther-Secret!!")
	assert.ErrorIs(t, err, domainErrors.ErrAlreadyExists)
	history.AssertNotCalled(t, "RecordAndPrune", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
