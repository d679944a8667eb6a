package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose is the closed set of flows a one-time code can belong to.
// Codes are scoped by (email, purpose); a login code cannot complete a
// signup and vice versa.
type OTPPurpose string

const (
	OTPPurposeSignup       OTPPurpose = "signup"
	OTPPurposeLogin        OTPPurpose = "login"
	OTPPurposeVerification OTPPurpose = "verification"
)

// Valid reports whether p is one of the known purposes.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeSignup, OTPPurposeLogin, OTPPurposeVerification:
		return true
	}
	return false
}

// DeliveryMethod records how a code was sent. Delivery itself happens
// outside this service.
type DeliveryMethod string

const (
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
)

// OTPCode represents a row in otp_codes. A code is authoritative only while
// unused and unexpired; at most one such code exists per (email, purpose)
// because issuance deletes prior active codes.
type OTPCode struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Email          string         `json:"email" db:"email"`
	Code           string         `json:"-" db:"code"`
	Purpose        OTPPurpose     `json:"code_type" db:"code_type"`
	DeliveryMethod DeliveryMethod `json:"delivery_method" db:"delivery_method"`
	IsUsed         bool           `json:"is_used" db:"is_used"`
	ExpiresAt      time.Time      `json:"expires_at" db:"expires_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
