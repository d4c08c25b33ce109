package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ki2helper/panel-api/internal/auth"
	"github.com/ki2helper/panel-api/internal/handlers"
	"github.com/ki2helper/panel-api/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	adminHandler *handlers.AdminHandler,
	resourceHandler *handlers.ResourceHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *auth.TokenManager,
	admins auth.AdminFetcher,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()
	authorized := auth.Authorized(tokenManager, admins)

	router.Get("/health", healthHandler.Check)

	// Public auth routes, rate limited per client
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/check-otp", authHandler.CheckOTP)
		r.Post("/auth/cml", authHandler.CreateMagicLink)
		r.Post("/auth/magic-login", authHandler.MagicLogin)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/refresh", authHandler.Refresh)
	})

	router.Post("/auth/logout", authHandler.Logout)

	// Bot-facing lookup used to decide whether to answer a chat command
	router.Get("/admins/has-rights/{user_id}", adminHandler.HasRights)

	// Authenticated panel routes
	router.Group(func(r chi.Router) {
		r.Use(authorized)

		r.Get("/user/profile", profileHandler.Get)
		r.Get("/admins/profile", profileHandler.Get)

		// Super-only admin management
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSuper(admins))
			r.Delete("/admins/{id}", adminHandler.DeleteManager)
			r.Post("/admins/bulk-delete", adminHandler.BulkDelete)
		})
	})

	// Collection resources: open reads, authorized mutations
	resourceHandler.Mount(router, handlers.Resources(), authorized)
}
