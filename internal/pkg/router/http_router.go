package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/EduPay/internal/pkg/middleware"
)

type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if h.deps.Metrics != nil {
		app.Use(h.deps.Metrics.Middleware())
	}

	// Every request carries its user context, anonymous when there is no session.
	app.Use(middleware.UserContext(h.deps.Sessions))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	ops := h.opsAuth()
	if h.deps.Metrics != nil {
		app.Get("/metrics", ops, h.deps.Metrics.Handler())
	}
	app.Get("/monitor", ops, monitor.New(monitor.Config{Title: "EduPay Monitor"}))
}

// opsAuth guards the operational endpoints with basic auth when credentials are configured.
func (h HttpRouter) opsAuth() fiber.Handler {
	if h.deps.MetricsUser == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return basicauth.New(basicauth.Config{
		Users: map[string]string{h.deps.MetricsUser: h.deps.MetricsPassword},
	})
}
