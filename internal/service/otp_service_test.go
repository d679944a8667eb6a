package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/models"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
)

func newOTPService(codes *MockOTPCodeRepository, attempts *MockAttemptRepository, limiter RateLimiter) *OTPService {
	return NewOTPService(codes, attempts, fakeTxManager{}, limiter, &capturingPublisher{}, zap.NewNop(),
		config.OTPConfig{DefaultExpiry: 10 * time.Minute, AttemptWindow: time.Hour},
		config.RateLimitConfig{OTPIssueLimit: 5, OTPIssuePeriod: time.Hour},
	)
}

func TestOTPService_Issue_SupersedesPriorCodes(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	codes.On("DeleteActive", mock.Anything, "user@example.com", models.OTPPurposeLogin).Return(int64(1), nil)
	codes.On("Create", mock.Anything, mock.AnythingOfType("*models.OTPCode")).Return(nil)

	code, err := svc.Issue(context.Background(), "User@Example.com ", models.OTPPurposeLogin, models.DeliveryEmail, 0)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", code.Email)
	assert.Len(t, code.Code, 6)
	assert.WithinDuration(t, code.CreatedAt.Add(10*time.Minute), code.ExpiresAt, time.Second)
	codes.AssertExpectations(t)
}

func TestOTPService_Issue_UnknownPurpose(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	_, err := svc.Issue(context.Background(), "user@example.com", models.OTPPurpose("admin"), models.DeliveryEmail, 0)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidInput)
	codes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOTPService_Issue_RateLimited(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, denyAllLimiter{})

	_, err := svc.Issue(context.Background(), "user@example.com", models.OTPPurposeLogin, models.DeliveryEmail, 0)
	assert.ErrorIs(t, err, domainErrors.ErrRateLimitExceeded)
	codes.AssertNotCalled(t, "DeleteActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestOTPService_Verify_ConsumesCodeOnMatch(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	stored := &models.OTPCode{
		ID:      uuid.New(),
		Email:   "user@example.com",
		Code:    "042137",
		Purpose: models.OTPPurposeLogin,
	}
	codes.On("FindActive", mock.Anything, "user@example.com", models.OTPPurposeLogin).Return(stored, nil)
	codes.On("MarkUsed", mock.Anything, stored.ID).Return(nil)
	attempts.On("Record", mock.Anything, mock.MatchedBy(func(a *models.VerificationAttempt) bool {
		return a.IsSuccessful && a.AttemptType == models.AttemptTypeOTPLogin
	})).Return(nil)

	result, err := svc.Verify(context.Background(), "user@example.com", "042137", models.OTPPurposeLogin, "", "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	codes.AssertExpectations(t)
	attempts.AssertExpectations(t)
}

func TestOTPService_Verify_WrongCodeCountsAttempt(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	stored := &models.OTPCode{ID: uuid.New(), Email: "user@example.com", Code: "042137", Purpose: models.OTPPurposeLogin}
	codes.On("FindActive", mock.Anything, "user@example.com", models.OTPPurposeLogin).Return(stored, nil)
	attempts.On("Record", mock.Anything, mock.MatchedBy(func(a *models.VerificationAttempt) bool {
		return !a.IsSuccessful
	})).Return(nil)
	attempts.On("CountFailedSince", mock.Anything, "user@example.com", models.AttemptTypeOTPLogin, mock.AnythingOfType("time.Time")).Return(3, nil)

	result, err := svc.Verify(context.Background(), "user@example.com", "000000", models.OTPPurposeLogin, "", "")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 3, result.AttemptsInWindow)
	codes.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestOTPService_Verify_NoActiveCode(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	// expired and absent codes are the same from the repository's view
	codes.On("FindActive", mock.Anything, "user@example.com", models.OTPPurposeSignup).Return(nil, domainErrors.ErrNotFound)
	attempts.On("Record", mock.Anything, mock.Anything).Return(nil)
	attempts.On("CountFailedSince", mock.Anything, "user@example.com", models.AttemptTypeOTPSignup, mock.AnythingOfType("time.Time")).Return(1, nil)

	result, err := svc.Verify(context.Background(), "user@example.com", "123456", models.OTPPurposeSignup, "", "")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.AttemptsInWindow)
}

func TestOTPService_Verify_ConcurrentConsumeIsMiss(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	stored := &models.OTPCode{ID: uuid.New(), Email: "user@example.com", Code: "042137", Purpose: models.OTPPurposeLogin}
	codes.On("FindActive", mock.Anything, "user@example.com", models.OTPPurposeLogin).Return(stored, nil)
	codes.On("MarkUsed", mock.Anything, stored.ID).Return(domainErrors.ErrNotFound)
	attempts.On("Record", mock.Anything, mock.Anything).Return(nil)
	attempts.On("CountFailedSince", mock.Anything, "user@example.com", models.AttemptTypeOTPLogin, mock.AnythingOfType("time.Time")).Return(0, nil)

	result, err := svc.Verify(context.Background(), "user@example.com", "042137", models.OTPPurposeLogin, "", "")
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestOTPService_Verify_LeadingZeroCode(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	svc := newOTPService(codes, attempts, allowAllLimiter{})

	stored := &models.OTPCode{ID: uuid.New(), Email: "user@example.com", Code: "000042", Purpose: models.OTPPurposeVerification}
	codes.On("FindActive", mock.Anything, "user@example.com", models.OTPPurposeVerification).Return(stored, nil)
	codes.On("MarkUsed", mock.Anything, stored.ID).Return(nil)
	attempts.On("Record", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Verify(context.Background(), "user@example.com", "000042", models.OTPPurposeVerification, "", "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestOTPService_Issue_PublishesEvent(t *testing.T) {
	codes := new(MockOTPCodeRepository)
	attempts := new(MockAttemptRepository)
	publisher := &capturingPublisher{}
	svc := NewOTPService(codes, attempts, fakeTxManager{}, allowAllLimiter{}, publisher, zap.NewNop(),
		config.OTPConfig{DefaultExpiry: 10 * time.Minute, AttemptWindow: time.Hour},
		config.RateLimitConfig{OTPIssueLimit: 5, OTPIssuePeriod: time.Hour},
	)

	codes.On("DeleteActive", mock.Anything, "user@example.com", models.OTPPurposeSignup).Return(int64(0), nil)
	codes.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Issue(context.Background(), "user@example.com", models.OTPPurposeSignup, models.DeliveryEmail, 0)
	require.NoError(t, err)
	assert.True(t, publisher.published(events.OTPIssuedV1))
}
