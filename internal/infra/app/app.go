package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/database"
	kafkainfra "github.com/dhanush432-code/tradescope-auth/internal/infra/kafka"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/logger"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/mail"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/oauth"
	redisinfra "github.com/dhanush432-code/tradescope-auth/internal/infra/redis"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/telemetry"
	postgresrepo "github.com/dhanush432-code/tradescope-auth/internal/repository/postgres"
	redisrepo "github.com/dhanush432-code/tradescope-auth/internal/repository/redis"
	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/middleware"
	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/routes"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

// Application bundles the wired service with its infrastructure handles.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracing  *telemetry.TracerProvider
}

// New wires every component from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			log.Warn("failed to init tracing, continuing without it", zap.Error(err))
			tracing = nil
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	users := postgresrepo.NewUserRepository(pool)
	sessionStore := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)
	otpStore := redisrepo.NewOTPStore(redisClient.Client(), cfg.Redis.OTPPrefix)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.RateLimitPrefix, rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
			producer = nil
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mailer port.EmailGateway
	if cfg.SMTP.Host != "" {
		mailer, err = mail.NewSMTPGateway(cfg.SMTP, log)
		if err != nil {
			closeAll(pool, redisClient, producer)
			return nil, fmt.Errorf("init smtp gateway: %w", err)
		}
	} else {
		log.Info("smtp not configured, otp codes go to the log")
		mailer = mail.NewLoggingGateway(log)
	}

	provider := oauth.NewGoogleProvider(cfg.OAuth)

	sessionService := usecase.NewSessionService(sessionStore, users, eventPublisher, cfg.Session.TTL, log)
	authService := usecase.NewAuthService(provider, users, sessionService, eventPublisher, log)
	mfaService := usecase.NewMfaService(otpStore, mailer, eventPublisher, cfg.OTP, log)

	tokenService, err := usecase.NewTokenService(cfg.JWT)
	if err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("init token service: %w", err)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		closeAll(pool, redisClient, producer)
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Users:       users,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:     authService,
			Sessions: sessionService,
			Tokens:   tokenService,
			Mfa:      mfaService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracing:  tracing,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer closeAll(a.pool, a.redis, a.producer)
	defer func() {
		if a.tracing != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.tracing.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("tracing shutdown failed", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func closeAll(pool *pgxpool.Pool, redisClient *redisinfra.Client, producer *kafkainfra.Producer) {
	if producer != nil {
		_ = producer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}
}
