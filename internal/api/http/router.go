package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Metrics   *handlers.MetricsHandler
	Auth      *handlers.AuthHandler
	Tickets   *handlers.TicketsHandler
	Templates *handlers.TemplatesHandler
	// AuthMiddleware guards /api; nil leaves it open and attributes changes to Owner.
	AuthMiddleware *auth.AuthMiddleware
	Owner          string
}

// NewApp builds the fiber app with the settings every entrypoint shares.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Metrics)
	app.Post("/auth/token", cfg.Auth.Token)

	api := app.Group("/api", guard(cfg))

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/count", cfg.Tickets.CountTickets)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Post("/bulk/status", cfg.Tickets.BulkStatus)
	tickets.Post("/bulk/delete", cfg.Tickets.BulkDelete)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/complete", cfg.Tickets.Complete)
	tickets.Post("/:id/start", cfg.Tickets.Start)
	tickets.Post("/:id/archive", cfg.Tickets.Archive)
	tickets.Post("/:id/tags", cfg.Tickets.AddTag)
	tickets.Delete("/:id/tags/:tag", cfg.Tickets.RemoveTag)
	tickets.Get("/:id/history", cfg.Tickets.History)

	templates := api.Group("/templates")
	templates.Get("/", cfg.Templates.ListTemplates)
	templates.Get("/count", cfg.Templates.CountTemplates)
	templates.Get("/default", cfg.Templates.GetDefault)
	templates.Post("/", cfg.Templates.CreateTemplate)
	templates.Get("/:id", cfg.Templates.GetTemplate)
	templates.Put("/:id", cfg.Templates.UpdateTemplate)
	templates.Delete("/:id", cfg.Templates.DeleteTemplate)
	templates.Post("/:id/default", cfg.Templates.SetDefault)
	templates.Post("/:id/duplicate", cfg.Templates.Duplicate)
	templates.Post("/:id/versions", cfg.Templates.NewVersion)
}

func guard(cfg RouteConfig) fiber.Handler {
	if cfg.AuthMiddleware != nil {
		return cfg.AuthMiddleware.Handle
	}
	owner := cfg.Owner
	return func(c *fiber.Ctx) error {
		c.SetUserContext(auth.WithOwner(c.UserContext(), owner))
		return c.Next()
	}
}
