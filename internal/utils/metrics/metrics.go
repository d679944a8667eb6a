// Package metrics registers the prometheus instruments for the credential
// core. Label values are bounded status strings, never user input.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_login_attempts_total",
		Help: "The total number of login attempts by outcome",
	}, []string{"status"})

	SessionValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_session_validations_total",
		Help: "The total number of session validations by outcome",
	}, []string{"status"})

	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_sessions_created_total",
		Help: "The total number of sessions created",
	})

	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_otp_issued_total",
		Help: "The total number of one-time codes issued by purpose",
	}, []string{"purpose"})

	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_otp_verifications_total",
		Help: "The total number of one-time code verifications by outcome",
	}, []string{"status"})

	AccountLockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_account_lockouts_total",
		Help: "The total number of account lockouts triggered",
	})

	PasswordResetRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_password_reset_requests_total",
		Help: "The total number of password reset requests by outcome",
	}, []string{"status"})

	PasswordResetsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_password_resets_completed_total",
		Help: "The total number of password reset completions by outcome",
	}, []string{"status"})

	PasswordHashDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_service_password_hash_duration_seconds",
		Help:    "Time spent hashing or comparing passwords",
		Buckets: []float64{0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6},
	})
)
