package service

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/lumohealth/health_platform/backend/services/auth-service/internal/domain/errors"
)

// PasswordPolicy is the stateless strength check applied before any
// password reaches the credential core: minimum length plus upper, lower,
// digit, and special character classes.
type PasswordPolicy struct {
	minLength int
	validate  *validator.Validate
}

// NewPasswordPolicy creates a policy with the given minimum length.
func NewPasswordPolicy(minLength int) *PasswordPolicy {
	return &PasswordPolicy{minLength: minLength, validate: validator.New()}
}

// Validate checks the candidate password, returning ErrPasswordTooWeak
// with a reason when any rule fails.
func (p *PasswordPolicy) Validate(password string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("%w: must be at least %d characters", domainErrors.ErrPasswordTooWeak, p.minLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("%w: must contain an uppercase letter", domainErrors.ErrPasswordTooWeak)
	case !hasLower:
		return fmt.Errorf("%w: must contain a lowercase letter", domainErrors.ErrPasswordTooWeak)
	case !hasDigit:
		return fmt.Errorf("%w: must contain a digit", domainErrors.ErrPasswordTooWeak)
	case !hasSpecial:
		return fmt.Errorf("%w: must contain a special character", domainErrors.ErrPasswordTooWeak)
	}
	return nil
}

// ValidateEmail checks email syntax. Account lookup treats unknown and
// malformed addresses identically downstream.
func (p *PasswordPolicy) ValidateEmail(email string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: malformed email address", domainErrors.ErrInvalidInput)
	}
	return nil
}
