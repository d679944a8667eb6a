package random

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_LengthAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := Token()
		require.NoError(t, err)
		// 32 bytes base64url without padding is 43 characters.
		assert.Len(t, token, 43)
		_, dup := seen[token]
		assert.False(t, dup, "token collision")
		seen[token] = struct{}{}
	}
}

func TestNumericCode_FormatAndPadding(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := NumericCode(6)
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(code), "code %q not 6 digits", code)
	}
}

func TestNumericCode_RejectsNonPositive(t *testing.T) {
	_, err := NumericCode(0)
	assert.Error(t, err)
	_, err = NumericCode(-3)
	assert.Error(t, err)
}
