package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/MagicalPanda8123/synapse-auth-service/internal/config"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/domain"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/events"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/handler"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/profile"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/repository"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/service"
	"github.com/MagicalPanda8123/synapse-auth-service/internal/utils"
	"github.com/MagicalPanda8123/synapse-auth-service/pkg/observability"
)

const (
	shutdownTimeout = 5 * time.Second
	tokenGCInterval = time.Hour
)

type App struct {
	infra  Infrastructure
	config *config.Config
	repos  *repository.Repositories
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	privateKey, err := utils.LoadPrivateKey(cfg.JWT.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	jwtManager := utils.NewJWTManager(privateKey, cfg.JWT.RefreshSecret, utils.JWTManagerConfig{
		KeyID:              cfg.JWT.KeyID,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		AccessTokenExpiry:  cfg.JWT.AccessTokenExpiry.Duration,
		RefreshTokenExpiry: cfg.JWT.RefreshTokenExpiry.Duration,
		ResetTokenExpiry:   cfg.JWT.ResetTokenExpiry.Duration,
		ServiceTokenExpiry: cfg.JWT.ServiceTokenExpiry.Duration,
	})

	hasher, err := utils.NewPasswordHasher(utils.Argon2Params{
		Memory:      cfg.Security.Argon2Memory,
		Time:        cfg.Security.Argon2Time,
		Parallelism: cfg.Security.Argon2Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid password hashing parameters: %w", err)
	}

	blacklist := service.NewRedisTokenBlacklist(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)
	publisher := events.NewPublisher(infra.Bus())
	profileClient := profile.NewClient(cfg.Profile.URL, cfg.Profile.Timeout.Duration, jwtManager)

	authService := service.NewAuthService(
		repos,
		hasher,
		jwtManager,
		blacklist,
		publisher,
		profileClient,
		service.AuthServiceConfig{
			VerificationCodeTTL: cfg.Codes.VerificationTTL.Duration,
			ResetCodeTTL:        cfg.Codes.ResetTTL.Duration,
		},
		infra.Logger(),
	)
	adminService := service.NewAdminService(repos, infra.Logger())

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(adminService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("auth-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, adminHandler, authService, jwtManager, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		repos:  repos,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	authService service.AuthService,
	jwtManager *utils.JWTManager,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)
	router.GET("/.well-known/jwks.json", handler.JWKSHandler(jwtManager))

	limited := func() gin.HandlerFunc {
		return handler.RateLimitMiddleware(
			rateLimiter,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow.Duration,
			handler.IPBasedKey,
		)
	}

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited(), authHandler.Register)
			auth.POST("/verify-email", limited(), authHandler.VerifyEmail)
			auth.POST("/resend-verification", limited(), authHandler.ResendVerification)
			auth.POST("/login", limited(), authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", handler.AuthMiddleware(authService), authHandler.GetMe)

			auth.POST("/change-password", handler.AuthMiddleware(authService), authHandler.ChangePassword)

			password := auth.Group("/password")
			{
				password.POST("/reset-request", limited(), authHandler.RequestPasswordReset)
				password.POST("/verify-code", limited(), authHandler.VerifyResetCode)
				password.POST("/reset", authHandler.SetNewPassword)
			}
		}

		admin := api.Group("/admin", handler.AuthMiddleware(authService), handler.RequireRole(domain.RoleSystemAdmin))
		{
			admin.GET("/accounts", adminHandler.ListAccounts)
			admin.GET("/accounts/:id", adminHandler.GetAccount)
			admin.PATCH("/accounts/:id/status", adminHandler.UpdateStatus)
			admin.GET("/accounts/:id/status-logs", adminHandler.StatusLogs)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	consumer, err := events.StartUsernameConsumer(ctx, a.infra.Bus(), a.repos.Account, a.infra.Logger())
	if err != nil {
		return fmt.Errorf("failed to start username consumer: %w", err)
	}
	defer func(c io.Closer) { _ = c.Close() }(consumer)

	go a.runTokenGC(ctx)

	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// runTokenGC periodically removes refresh tokens past their expiry. Expired
// rows are already unusable, this only keeps the table from growing unbounded.
func (a *App) runTokenGC(ctx context.Context) {
	ticker := time.NewTicker(tokenGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.repos.RefreshToken.DeleteExpired(ctx); err != nil {
				a.infra.Logger().Error("Refresh token cleanup failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
