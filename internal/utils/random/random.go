// Package random generates the unguessable values the credential core
// hands out: opaque bearer tokens and numeric one-time codes.
package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// tokenBytes gives 256 bits of entropy, twice the required minimum.
const tokenBytes = 32

// Token returns an opaque URL-safe bearer token.
func Token() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NumericCode returns a uniformly random code of the given number of
// digits, zero-padded so leading zeros are preserved.
func NumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("digits must be positive, got %d", digits)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
