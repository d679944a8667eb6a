package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptType distinguishes what kind of credential an attempt exercised.
type AttemptType string

const (
	AttemptTypeLogin       AttemptType = "login"
	AttemptTypeOTPSignup   AttemptType = "otp_signup"
	AttemptTypeOTPLogin    AttemptType = "otp_login"
	AttemptTypeOTPVerify   AttemptType = "otp_verification"
	AttemptTypeResetVerify AttemptType = "password_reset"
)

// AttemptTypeForOTP maps an OTP purpose to its audit attempt type.
func AttemptTypeForOTP(purpose OTPPurpose) AttemptType {
	switch purpose {
	case OTPPurposeSignup:
		return AttemptTypeOTPSignup
	case OTPPurposeLogin:
		return AttemptTypeOTPLogin
	default:
		return AttemptTypeOTPVerify
	}
}

// VerificationAttempt is an append-only audit row in verification_attempts.
// Rows are only ever inserted; rate-limit windows are computed by counting
// recent failures.
type VerificationAttempt struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	AttemptType  AttemptType `json:"attempt_type" db:"attempt_type"`
	IsSuccessful bool        `json:"is_successful" db:"is_successful"`
	IPAddress    *string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    *string     `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}
