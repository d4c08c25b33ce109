package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/background"
	"github.com/ki2helper/panel-api/internal/config"
	"github.com/ki2helper/panel-api/internal/handlers"
	middlewareCustom "github.com/ki2helper/panel-api/internal/middleware"
	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/repositories"
	"github.com/ki2helper/panel-api/internal/routes"
	"github.com/ki2helper/panel-api/internal/services"
	"github.com/ki2helper/panel-api/internal/store"
	"github.com/ki2helper/panel-api/internal/telegram"
	pkglogger "github.com/ki2helper/panel-api/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Open the document store and run migrations
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.Open(startupCtx, &cfg.Database, logger)
	startupCancel()
	if err != nil {
		logger.Error("failed to open document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	adminRepo := repositories.NewAdminRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)
	resourceRepo := repositories.NewResourceRepository(db)

	// Telegram bot
	notifier, err := telegram.New(cfg.Bot.Token, logger)
	if err != nil {
		logger.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(&cfg.Auth)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Services
	authService := services.NewAuthService(
		adminRepo,
		attemptRepo,
		notifier,
		tokenManager,
		logger,
		auditLogger,
		cfg.Auth.MagicLinkBase,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry, logger)
	profileHandler := handlers.NewProfileHandler(authService)
	adminHandler := handlers.NewAdminHandler(adminRepo)
	resourceHandler := handlers.NewResourceHandler(resourceRepo, logger)
	healthHandler := handlers.NewHealthHandler(db)

	// Cleanup manager for stale login attempts
	cleanupManager := background.NewCleanupManager(attemptRepo, logger, cfg.Auth.AttemptTTL, cfg.Auth.AttemptCleanupInterval)

	// Bootstrap first super admin if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureSuperAdmin(bootstrapCtx, adminRepo, logger); err != nil {
		logger.Error("failed to ensure super admin", slog.Any("error", err))
	}
	bootstrapCancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, profileHandler, adminHandler, resourceHandler, healthHandler, tokenManager, adminRepo)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureSuperAdmin creates the first super admin if ADMIN_USER_ID and
// ADMIN_USERNAME are set. Without at least one admin nobody can log in.
func ensureSuperAdmin(ctx context.Context, adminRepo *repositories.AdminRepository, logger *slog.Logger) error {
	rawUserID := os.Getenv("ADMIN_USER_ID")
	username := os.Getenv("ADMIN_USERNAME")

	if rawUserID == "" || username == "" {
		logger.Info("no ADMIN_USER_ID or ADMIN_USERNAME set, skipping super admin creation")
		return nil
	}

	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil {
		return fmt.Errorf("ADMIN_USER_ID must be an integer: %w", err)
	}

	_, err = adminRepo.GetByUserID(ctx, userID)
	if err == nil {
		logger.Info("super admin already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if super admin exists: %w", err)
	}

	if _, err := adminRepo.Create(ctx, &models.Admin{
		UserID:   userID,
		Username: username,
		Role:     models.RoleSuper,
	}); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	logger.Info("super admin created", slog.String("username", username))
	return nil
}
