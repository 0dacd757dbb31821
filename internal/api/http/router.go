package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/resource-hub/internal/api/http/handlers"
	"github.com/spec-kit/resource-hub/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Resources      *handlers.ResourcesHandler
	Requests       *handlers.RequestsHandler
	Allocations    *handlers.AllocationsHandler
	Admin          *handlers.AdminHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authed := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authed.Get("/me", cfg.Auth.Me)
	authed.Put("/profile", cfg.Auth.UpdateProfile)
	authed.Put("/change-password", cfg.Auth.ChangePassword)

	// Catalog reads are public; mutations require an admin bearer token.
	resources := api.Group("/resources")
	resources.Get("", cfg.Resources.List)
	resources.Get("/available", cfg.Resources.ListAvailable)
	resources.Get("/:id", cfg.Resources.Get)
	resources.Post("", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Resources.Create)
	resources.Put("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Resources.Update)
	resources.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Resources.Delete)

	requests := api.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	requests.Post("", cfg.Requests.Create)
	requests.Get("", auth.RequireAdmin(), cfg.Requests.ListAll)
	requests.Get("/mine", cfg.Requests.ListMine)
	requests.Get("/counts", cfg.Requests.Counts)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id/approve", auth.RequireAdmin(), cfg.Requests.Approve)
	requests.Put("/:id/reject", auth.RequireAdmin(), cfg.Requests.Reject)
	requests.Delete("/:id", cfg.Requests.Cancel)

	allocations := api.Group("/allocations", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	allocations.Get("", auth.RequireAdmin(), cfg.Allocations.ListAll)
	allocations.Get("/mine", cfg.Allocations.ListMine)
	allocations.Put("/:id/return", cfg.Allocations.Return)

	dashboard := api.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	dashboard.Get("/admin", auth.RequireAdmin(), cfg.Dashboard.Admin)
	dashboard.Get("/customer", cfg.Dashboard.Customer)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Put("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Get("/activity", cfg.Admin.ListActivity)
}
