package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/EduPay/app/controllers"
	"github.com/ManuelReschke/EduPay/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	if h.deps.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        h.deps.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": "Too many requests"})
			},
		}))
	}

	v1 := api.Group("/v1")
	h.registerPublicRoutes(v1)
	h.registerCustomerRoutes(v1)
	h.registerAdminRoutes(v1)
}

func (h ApiRouter) registerPublicRoutes(v1 fiber.Router) {
	auth := controllers.NewAuthController(h.deps.Lifecycle, h.deps.Sessions)
	v1.Post("/auth/signup", auth.HandleSignUp)
	v1.Post("/auth/login", auth.HandleLogin)
	v1.Post("/auth/logout", auth.HandleLogout)
	v1.Get("/me", middleware.RequireAuth, auth.HandleMe)

	catalog := controllers.NewCatalogController(h.deps.Lifecycle)
	v1.Get("/institutions", catalog.HandleListInstitutions)
	v1.Get("/institutions/:id", catalog.HandleGetInstitution)
	v1.Get("/institutions/:id/plans", catalog.HandleListPlans)
}

func (h ApiRouter) registerCustomerRoutes(v1 fiber.Router) {
	customer := controllers.NewCustomerController(h.deps.Lifecycle)
	auth := middleware.RequireAuth

	v1.Get("/applications", auth, customer.HandleListApplications)
	v1.Post("/applications", auth, customer.HandleCreateApplication)
	v1.Get("/applications/:id/checkout", auth, customer.HandleGetCheckout)
	v1.Post("/applications/:id/down-payment", auth, customer.HandleDownPayment)

	v1.Get("/installments", auth, customer.HandleListInstallments)
	v1.Get("/installments/:id", auth, customer.HandleGetInstallment)
	v1.Post("/installments/:id/payments", auth, customer.HandleMonthlyPayment)

	v1.Get("/payments", auth, customer.HandleListPayments)
}

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	admin := controllers.NewAdminController(h.deps.Lifecycle)
	queue := controllers.NewAdminQueueController(h.deps.Queue)
	group := v1.Group("/admin", middleware.RequireAdmin)

	group.Get("/applications", admin.HandleListApplications)
	group.Post("/applications/:id/approve", admin.HandleApproveApplication)
	group.Post("/applications/:id/reject", admin.HandleRejectApplication)
	group.Get("/installments", admin.HandleListInstallments)

	group.Get("/institutions", admin.HandleListInstitutions)
	group.Post("/institutions", admin.HandleCreateInstitution)
	group.Put("/institutions/:id", admin.HandleUpdateInstitution)
	group.Delete("/institutions/:id", admin.HandleDeleteInstitution)
	group.Post("/institutions/:id/toggle-visibility", admin.HandleToggleInstitution)
	group.Post("/institutions/:id/plans", admin.HandleCreatePlan)

	group.Post("/users", admin.HandleCreateUser)
	group.Get("/jobs", queue.HandleQueueStats)
}
