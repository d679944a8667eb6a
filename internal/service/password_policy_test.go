package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := NewPasswordPolicy(12)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong", "Str0ng!Pass1234", false},
		{"minimum length exactly", "Aa1!Aa1!Aa1!", false},
		{"too short", "Aa1!short", true},
		{"no uppercase", "weak!pass1234", true},
		{"no lowercase", "WEAK!PASS1234", true},
		{"no digit", "Weak!PassWord", true},
		{"no special", "WeakPass12345", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, domainErrors.ErrPasswordTooWeak)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordPolicy_ValidateEmail(t *testing.T) {
	policy := NewPasswordPolicy(12)

	assert.NoError(t, policy.ValidateEmail("user@example.com"))
	assert.ErrorIs(t, policy.ValidateEmail("not-an-email"), domainErrors.ErrInvalidInput)
	assert.ErrorIs(t, policy.ValidateEmail(""), domainErrors.ErrInvalidInput)
}
