package config

import "time"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SecurityConfig carries every time-based policy knob of the credential
// core. Defaults are set in loader.go; tests construct it directly.
type SecurityConfig struct {
	Lockout   LockoutConfig   `mapstructure:"lockout"`
	Session   SessionConfig   `mapstructure:"session"`
	OTP       OTPConfig       `mapstructure:"otp"`
	Reset     ResetConfig     `mapstructure:"reset"`
	Password  PasswordConfig  `mapstructure:"password"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type LockoutConfig struct {
	MaxFailedAttempts int           `mapstructure:"max_failed_attempts"`
	LockoutDuration   time.Duration `mapstructure:"lockout_duration"`
}

type SessionConfig struct {
	DefaultTTL       time.Duration `mapstructure:"default_ttl"`
	SignupTTL        time.Duration `mapstructure:"signup_ttl"`
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
}

type OTPConfig struct {
	DefaultExpiry time.Duration `mapstructure:"default_expiry"`
	AttemptWindow time.Duration `mapstructure:"attempt_window"`
}

type ResetConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type PasswordConfig struct {
	HistoryDepth     int    `mapstructure:"history_depth"`
	MinLength        int    `mapstructure:"min_length"`
	Argon2Memory     uint32 `mapstructure:"argon2_memory"`
	Argon2Iterations uint32 `mapstructure:"argon2_iterations"`
	Argon2Threads    uint8  `mapstructure:"argon2_threads"`
	Argon2SaltLen    uint32 `mapstructure:"argon2_salt_length"`
	Argon2KeyLen     uint32 `mapstructure:"argon2_key_length"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	OTPIssueLimit   int           `mapstructure:"otp_issue_limit"`
	OTPIssuePeriod  time.Duration `mapstructure:"otp_issue_period"`
	ResetReqLimit   int           `mapstructure:"reset_request_limit"`
	ResetReqPeriod  time.Duration `mapstructure:"reset_request_period"`
	LoginIPLimit    int           `mapstructure:"login_ip_limit"`
	LoginIPPeriod   time.Duration `mapstructure:"login_ip_period"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}
