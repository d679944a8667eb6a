package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/app"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/config"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/events"
	eventsKafka "github.com/lumohealth/health_platform/backend/services/auth-service/internal/events/kafka"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/infrastructure/database"
	infraPostgres "github.com/lumohealth/health_platform/backend/services/auth-service/internal/infrastructure/database/postgres"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/infrastructure/security"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/service"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/logger"
	"github.com/lumohealth/health_platform/backend/services/auth-service/internal/utils/rate"
	"github.com/lumohealth/health_platform/backend/services/auth-service/migrations"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Environment)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		if err := migrations.Up(cfg.Database, log); err != nil {
			log.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize postgres pool", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := eventsKafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log, "/auth-service")
		if err != nil {
			log.Fatal("failed to initialize kafka producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	}

	hasher, err := security.NewArgon2idHasher(security.Argon2idParams{
		Memory:      cfg.Security.Password.Argon2Memory,
		Iterations:  cfg.Security.Password.Argon2Iterations,
		Parallelism: cfg.Security.Password.Argon2Threads,
		SaltLength:  cfg.Security.Password.Argon2SaltLen,
		KeyLength:   cfg.Security.Password.Argon2KeyLen,
	})
	if err != nil {
		log.Fatal("failed to initialize password hasher", zap.Error(err))
	}

	userRepo := database.NewPgxUserRepository(pool)
	sessionRepo := database.NewPgxSessionRepository(pool)
	otpRepo := database.NewPgxOTPCodeRepository(pool)
	resetTokenRepo := database.NewPgxPasswordResetTokenRepository(pool)
	historyRepo := database.NewPgxPasswordHistoryRepository(pool)
	attemptRepo := database.NewPgxAttemptRepository(pool)
	txManager := database.NewTxManager(pool)

	limiter := rate.NewLimiter(redisClient, logger.WithComponent(log, "rate"), cfg.Security.RateLimit.Enabled)
	policy := service.NewPasswordPolicy(cfg.Security.Password.MinLength)

	historySvc := service.NewPasswordHistoryService(historyRepo, hasher, cfg.Security.Password)
	credentialSvc := service.NewCredentialService(userRepo, historySvc, hasher, policy, txManager)
	lockoutSvc := service.NewLockoutService(userRepo, txManager, publisher,
		logger.WithComponent(log, "lockout"), cfg.Security.Lockout)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, publisher,
		logger.WithComponent(log, "session"), cfg.Security.Session)
	otpSvc := service.NewOTPService(otpRepo, attemptRepo, txManager, limiter, publisher,
		logger.WithComponent(log, "otp"), cfg.Security.OTP, cfg.Security.RateLimit)
	resetSvc := service.NewPasswordResetService(resetTokenRepo, userRepo, historySvc, hasher, policy,
		txManager, limiter, publisher, logger.WithComponent(log, "reset"),
		cfg.Security.Reset, cfg.Security.RateLimit)
	loginSvc := service.NewLoginService(userRepo, attemptRepo, credentialSvc, lockoutSvc, otpSvc,
		sessionSvc, limiter, publisher, logger.WithComponent(log, "login"),
		cfg.Security.Session, cfg.Security.RateLimit)

	core := &app.App{
		Sessions:    sessionSvc,
		OTP:         otpSvc,
		Lockout:     lockoutSvc,
		Credentials: credentialSvc,
		History:     historySvc,
		Reset:       resetSvc,
		Login:       loginSvc,
		Policy:      policy,
	}
	// The HTTP surface lives in the gateway; this binary exposes health
	// and metrics and runs housekeeping. The handler layer consumes core.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := core.PurgeExpired(ctx); err != nil {
					log.Error("failed to purge expired credentials", zap.Error(err))
				}
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: mux,
	}

	go func() {
		log.Info("metrics listener starting", zap.Int("port", cfg.Server.MetricsPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listener failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics listener shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
