package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	redisinfra "github.com/dhanush432-code/tradescope-auth/internal/infra/redis"
	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/handlers"
	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/middleware"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Sessions *usecase.SessionService
	Tokens   *usecase.TokenService
	Mfa      *usecase.MfaService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Users       port.UserRepository
	Database    *pgxpool.Pool
	Cache       *redisinfra.Client
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(
		deps.Services.Sessions,
		deps.Services.Tokens,
		deps.Users,
		deps.Config.Session.CookieName,
		deps.Logger,
	)

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Cache)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(
		deps.Services.Auth,
		deps.Services.Sessions,
		deps.Config.Session,
		deps.Config.App.FrontendURL,
		deps.Logger,
		handlers.WithSecureCookies(deps.Config.App.Env == "production"),
	)
	mfaHandler := handlers.NewMfaHandler(deps.Services.Mfa, deps.Logger)

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/google", authHandler.Login)
		authGroup.GET("/google/callback", authHandler.Callback)
		authGroup.POST("/logout", authHandler.Logout)

		mfaGroup := authGroup.Group("/mfa")
		mfaGroup.POST("/request", append(mfaRequestMiddlewares(deps), mfaHandler.Request)...)
		mfaGroup.POST("/verify", append(mfaVerifyMiddlewares(deps), mfaHandler.Verify)...)
	}

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		userHandler := handlers.NewUserHandler()
		api.GET("/user/me", userHandler.Me)

		tokenHandler := handlers.NewTokenHandler(deps.Services.Tokens, deps.Logger)
		api.POST("/token", tokenHandler.Issue)
	}

	return r
}

func mfaRequestMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return mfaRateLimit(deps, "mfa_request_ip", deps.Config.RateLimit.OtpRequestAttempts)
}

func mfaVerifyMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return mfaRateLimit(deps, "mfa_verify_ip", deps.Config.RateLimit.OtpVerifyAttempts)
}

func mfaRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
