package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/config"
	"github.com/HSouheill/carrental_backend/controllers"
	"github.com/HSouheill/carrental_backend/middleware"
	"github.com/HSouheill/carrental_backend/realtime"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/routes"
	"github.com/HSouheill/carrental_backend/services"
	"github.com/HSouheill/carrental_backend/utils"
)

const version = "1.0"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	client, err := config.ConnectDB(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.DBName)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = config.EnsureIndexes(indexCtx, db, logger)
	cancel()
	if err != nil {
		return err
	}

	// Redis is optional
	redisClient := config.ConnectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	realtime.RegisterMetrics(registry)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Realtime
	hub := realtime.NewHub(logger)
	if redisClient != nil {
		bus := realtime.NewRedisBus(redisClient, hub, logger)
		hub.SetRelay(bus)
		go func() {
			if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Notification bus stopped", zap.Error(err))
			}
		}()
	}
	streamer := realtime.NewStreamer(hub, cfg.KeepAliveInterval, cfg.CORSAllowedOrigins, logger)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	carRepo := repositories.NewCarRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	favoriteRepo := repositories.NewFavoriteRepository(db)

	var resetTokens services.ResetTokenStore = services.NewMemoryResetTokens()
	if redisClient != nil {
		resetTokens = services.NewRedisResetTokens(redisClient)
	}

	// Initialize services
	hasher := utils.NewPasswordHasher()
	mailer := services.NewMailer(cfg, logger)
	sessionService := services.NewSessionService(sessionRepo, userRepo, cfg.SessionTTL, logger)
	notificationService := services.NewNotificationService(
		notificationRepo, userRepo, hub,
		mailer, services.NewSMSSender(cfg, logger),
		cfg.NotificationLimit, logger,
	)
	passwordService := services.NewPasswordService(
		userRepo, sessionService, resetTokens, mailer, notificationService, hasher,
		services.PasswordServiceConfig{Secret: cfg.ResetTokenSecret, TTL: cfg.ResetTokenTTL, BaseURL: cfg.AppBaseURL},
		logger,
	)
	authService, err := services.NewAuthService(userRepo, sessionService, notificationService, hasher, logger)
	if err != nil {
		return err
	}
	userService := services.NewUserService(userRepo, sessionService, passwordService, notificationService, logger)
	catalogService := services.NewCatalogService(categoryRepo, carRepo, favoriteRepo)
	bookingService := services.NewBookingService(bookingRepo, carRepo, notificationService, logger)

	// Initialize controllers
	cookie := controllers.SessionCookie{Name: cfg.SessionCookie, Secure: cfg.IsProduction()}
	handlers := routes.Handlers{
		Auth:         controllers.NewAuthController(authService, sessionService, cookie, logger),
		Password:     controllers.NewPasswordController(passwordService, authService, sessionService, cookie),
		User:         controllers.NewUserController(userService),
		Admin:        controllers.NewAdminController(userService, logger),
		Notification: controllers.NewNotificationController(notificationService, streamer, logger),
		Category:     controllers.NewCategoryController(catalogService),
		Car:          controllers.NewCarController(catalogService),
		Favorite:     controllers.NewFavoriteController(catalogService),
		Booking:      controllers.NewBookingController(bookingService, logger),
		Health:       controllers.NewHealthController(client, version, logger),
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Middleware
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		AllowedDomains: cfg.CORSAllowedOrigins,
		HSTS:           cfg.IsProduction(),
	}))
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.Session(sessionService, cfg.SessionCookie))

	routes.SetupRoutes(e, handlers)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Forced shutdown", zap.Error(err))
	}
	return nil
}
