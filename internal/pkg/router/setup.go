package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/EduPay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
	"github.com/ManuelReschke/EduPay/internal/pkg/metrics"
	appsession "github.com/ManuelReschke/EduPay/internal/pkg/session"
)

// Router installs a group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the routes are wired to. Queue and Metrics may be nil.
type Dependencies struct {
	Lifecycle *lifecycle.Lifecycle
	Sessions  *session.Store
	Queue     *jobqueue.Queue
	Metrics   *metrics.Metrics
	// RateLimit is the number of API requests per minute and client IP. Zero disables the limiter.
	RateLimit       int
	MetricsUser     string
	MetricsPassword string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	if deps.Sessions == nil {
		deps.Sessions = appsession.New(nil)
	}
	// HttpRouter first: it installs the session middleware the API routes rely on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
