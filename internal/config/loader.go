package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a file and environment variables.
// The file is optional; every value has a default or can come from an
// AUTH_-prefixed environment variable.
func LoadConfig() (*Config, error) {
	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/auth-service")
	}

	viper.SetEnvPrefix("AUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.metrics_port", 9090)
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 20)
	viper.SetDefault("database.migrations_path", "migrations")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.topic", "auth-events")

	viper.SetDefault("security.lockout.max_failed_attempts", 5)
	viper.SetDefault("security.lockout.lockout_duration", "30m")

	viper.SetDefault("security.session.default_ttl", "4h")
	viper.SetDefault("security.session.signup_ttl", "24h")
	viper.SetDefault("security.session.inactivity_window", "30m")

	viper.SetDefault("security.otp.default_expiry", "10m")
	viper.SetDefault("security.otp.attempt_window", "1h")

	viper.SetDefault("security.reset.token_ttl", "1h")

	viper.SetDefault("security.password.history_depth", 5)
	viper.SetDefault("security.password.min_length", 12)
	viper.SetDefault("security.password.argon2_memory", 65536)
	viper.SetDefault("security.password.argon2_iterations", 3)
	viper.SetDefault("security.password.argon2_threads", 4)
	viper.SetDefault("security.password.argon2_salt_length", 16)
	viper.SetDefault("security.password.argon2_key_length", 32)

	viper.SetDefault("security.rate_limit.enabled", true)
	viper.SetDefault("security.rate_limit.otp_issue_limit", 5)
	viper.SetDefault("security.rate_limit.otp_issue_period", "1h")
	viper.SetDefault("security.rate_limit.reset_request_limit", 3)
	viper.SetDefault("security.rate_limit.reset_request_period", "1h")
	viper.SetDefault("security.rate_limit.login_ip_limit", 20)
	viper.SetDefault("security.rate_limit.login_ip_period", "1m")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.environment", "development")
}
