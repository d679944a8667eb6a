package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Security.Lockout.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Security.Lockout.LockoutDuration)
	assert.Equal(t, 4*time.Hour, cfg.Security.Session.DefaultTTL)
	assert.Equal(t, 24*time.Hour, cfg.Security.Session.SignupTTL)
	assert.Equal(t, 30*time.Minute, cfg.Security.Session.InactivityWindow)
	assert.Equal(t, 10*time.Minute, cfg.Security.OTP.DefaultExpiry)
	assert.Equal(t, time.Hour, cfg.Security.Reset.TokenTTL)
	assert.Equal(t, 5, cfg.Security.Password.HistoryDepth)
	assert.Equal(t, 12, cfg.Security.Password.MinLength)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("AUTH_SECURITY_LOCKOUT_MAX_FAILED_ATTEMPTS", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Security.Lockout.MaxFailedAttempts)
}
