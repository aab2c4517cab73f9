package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/tourism-service/internal/api/http/handlers"
	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/config"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tours          *handlers.TourHandler
	Bookings       *handlers.BookingHandler
	Users          *handlers.UserHandler
	Analytics      *handlers.AnalyticsHandler
	CRM            *handlers.CRMHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	RateLimit      config.RateLimitConfig
}

// RegisterRoutes wires HTTP routes. Unmatched paths fall through to a JSON 404.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authenticated := cfg.AuthMiddleware.Handle
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.AuthMiddleware.Optional, cfg.Auth.Register)
	authGroup.Post("/login", RateLimit(cfg.RateLimit), cfg.Auth.Login)
	authGroup.Post("/forgot-password", RateLimit(cfg.RateLimit), cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Get("/me", authenticated, cfg.Auth.Me)
	authGroup.Put("/profile", authenticated, cfg.Auth.UpdateProfile)
	authGroup.Put("/password", authenticated, cfg.Auth.ChangePassword)

	tours := api.Group("/tours")
	tours.Get("/", cfg.Tours.List)
	tours.Get("/featured/list", cfg.Tours.Featured)
	tours.Get("/slug/:slug", cfg.Tours.GetBySlug)
	tours.Get("/:id", cfg.Tours.Get)
	tours.Post("/", authenticated, auth.RequireRoles(auth.Managers...), cfg.Tours.Create)
	tours.Put("/:id", authenticated, auth.RequireRoles(auth.Managers...), cfg.Tours.Update)
	tours.Delete("/:id", authenticated, auth.RequireRoles(domain.RoleAdmin), cfg.Tours.Delete)

	bookings := api.Group("/bookings", authenticated)
	bookings.Post("/", cfg.Bookings.Create)
	bookings.Get("/my-bookings", cfg.Bookings.Mine)
	bookings.Get("/", auth.RequireRoles(auth.BookingViewers...), cfg.Bookings.List)
	bookings.Get("/:id", cfg.Bookings.Get)
	bookings.Patch("/:id/status", auth.RequireRoles(auth.BookingDesk...), cfg.Bookings.UpdateStatus)
	bookings.Patch("/:id/assign", auth.RequireRoles(auth.Managers...), cfg.Bookings.AssignAgent)
	bookings.Post("/:id/notes", auth.RequireRoles(auth.BookingDesk...), cfg.Bookings.AddNote)

	userAdmins := auth.RequireRoles(auth.PeopleAdmins...)
	users := api.Group("/users", authenticated)
	users.Get("/stats/overview", userAdmins, cfg.Users.Stats)
	users.Get("/", auth.RequireRoles(auth.PeopleViewers...), cfg.Users.List)
	users.Get("/:id", auth.RequireRoles(auth.PeopleViewers...), cfg.Users.Get)
	users.Post("/", userAdmins, cfg.Users.Create)
	users.Put("/:id", userAdmins, cfg.Users.Update)
	users.Patch("/:id/deactivate", userAdmins, cfg.Users.Deactivate)
	users.Patch("/:id/activate", userAdmins, cfg.Users.Activate)

	analytics := api.Group("/analytics", authenticated, auth.RequireRoles(auth.AnalyticsViewers...))
	analytics.Get("/dashboard", cfg.Analytics.Dashboard)
	analytics.Get("/bookings", cfg.Analytics.Bookings)
	analytics.Get("/revenue", cfg.Analytics.Revenue)

	crmStaff := auth.RequireRoles(auth.CRMStaff...)
	marketing := auth.RequireRoles(auth.Marketers...)
	crm := api.Group("/crm", authenticated)
	crm.Get("/customers", crmStaff, cfg.CRM.Customers)
	crm.Get("/customers/:id", crmStaff, cfg.CRM.Customer)
	crm.Post("/customers/:id/notes", crmStaff, cfg.CRM.AddNote)
	crm.Get("/segments/overview", marketing, cfg.CRM.Segments)
	crm.Post("/campaigns", marketing, cfg.CRM.CreateCampaign)

	app.Use(notFound)
}
