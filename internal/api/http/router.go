package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shreyansh2708-git/samadhan/internal/api/http/handlers"
	"github.com/shreyansh2708-git/samadhan/internal/auth"
	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	AdminIssues    *handlers.AdminIssuesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("/", cfg.Issues.CreateIssue)
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Patch("/:id", cfg.Issues.UpdateIssue)
	issues.Get("/:id/history", cfg.Issues.GetHistory)

	admin := app.Group("/admin/issues", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/stats", cfg.AdminIssues.Stats)
	admin.Get("/", cfg.AdminIssues.ListIssues)
	admin.Get("/:id", cfg.AdminIssues.GetIssue)
	admin.Post("/:id/status", cfg.AdminIssues.UpdateStatus)
	admin.Post("/:id/reopen", cfg.AdminIssues.Reopen)
	admin.Post("/:id/priority", cfg.AdminIssues.UpdatePriority)
	admin.Post("/:id/assign", cfg.AdminIssues.Assign)
	admin.Get("/:id/history", cfg.AdminIssues.GetHistory)
}
