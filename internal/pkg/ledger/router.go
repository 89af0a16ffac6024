package ledger

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/app/repository"
	"github.com/ManuelReschke/EduPay/internal/pkg/middleware"
)

// Router exposes the ledger tables as a REST API
type Router struct {
	repos *repository.Repositories
}

func NewRouter(repos *repository.Repositories) *Router {
	return &Router{repos: repos}
}

func (rt *Router) InstallRouter(app fiber.Router) {
	rc := func() *relationCache { return newRelationCache(rt.repos) }

	app.Post("/installment_plans/:id/payments", rt.recordPayment)

	(&resource[models.User, *models.User]{name: "users", store: rt.repos.User}).install(app)
	(&resource[models.Institution, *models.Institution]{name: "institutions", store: rt.repos.Institution}).install(app)
	(&resource[models.PlanTemplate, *models.PlanTemplate]{name: "plans", store: rt.repos.Plan, embed: embedPlanTemplate, rc: rc}).install(app)
	(&resource[models.Application, *models.Application]{name: "applications", store: rt.repos.Application, embed: embedApplication, rc: rc}).install(app)
	(&resource[models.InstallmentPlan, *models.InstallmentPlan]{name: "installment_plans", store: rt.repos.InstallmentPlan, embed: embedInstallmentPlan, rc: rc}).install(app)
	(&resource[models.Payment, *models.Payment]{name: "payments", store: rt.repos.Payment}).install(app)
}

type paymentRequest struct {
	Amount      float64            `json:"amount"`
	PaymentType models.PaymentType `json:"payment_type"`
}

// recordPayment applies a payment to an installment plan and appends it to
// the payment ledger atomically.
func (rt *Router) recordPayment(c *fiber.Ctx) error {
	expected, err := ifMatch(c)
	if err != nil {
		return respondError(c, err)
	}
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": fmt.Sprintf("invalid payment payload: %v", err),
		})
	}

	payment := &models.Payment{Amount: req.Amount, PaymentType: req.PaymentType}
	plan, err := rt.repos.InstallmentPlan.RecordPayment(c.UserContext(), c.Params("id"), expected, payment)
	if err != nil {
		return respondError(c, err)
	}
	setETag(c, plan.Version)
	return c.Status(fiber.StatusCreated).JSON(models.PaymentReceipt{InstallmentPlan: plan, Payment: payment})
}

// NewApp builds the ledger fiber application around repos.
func NewApp(repos *repository.Repositories, cfg *Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "EduPay Ledger",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if cfg.LogRequests {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if cfg.APIKey != "" {
		app.Use(middleware.ServiceKeyAuth(cfg.APIKey))
	}

	NewRouter(repos).InstallRouter(app)
	return app
}
