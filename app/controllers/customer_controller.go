package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
)

// CustomerController serves the signed-in customer's applications, checkout and payments
type CustomerController struct {
	lc *lifecycle.Lifecycle
}

func NewCustomerController(lc *lifecycle.Lifecycle) *CustomerController {
	return &CustomerController{lc: lc}
}

type applicationRequest struct {
	InstitutionID string `json:"institutionId"`
	PlanID        string `json:"planId"`
}

type paymentRequest struct {
	PlanID string  `json:"planId"`
	Amount float64 `json:"amount"`
}

func (cc *CustomerController) HandleCreateApplication(c *fiber.Ctx) error {
	var in applicationRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	app, err := cc.lc.CreateApplication(c.UserContext(), callerOf(c), in.InstitutionID, in.PlanID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, app)
}

func (cc *CustomerController) HandleListApplications(c *fiber.Ctx) error {
	list, err := cc.lc.ListMyApplications(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

// HandleGetCheckout returns the checkout summary of an approved application
func (cc *CustomerController) HandleGetCheckout(c *fiber.Ctx) error {
	view, err := cc.lc.GetCheckout(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, view)
}

// HandleDownPayment pays the down payment and activates the installment plan
func (cc *CustomerController) HandleDownPayment(c *fiber.Ctx) error {
	var in paymentRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	receipt, err := cc.lc.ProcessDownPayment(c.UserContext(), callerOf(c), c.Params("id"), in.PlanID, in.Amount)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, receipt)
}

func (cc *CustomerController) HandleListInstallments(c *fiber.Ctx) error {
	list, err := cc.lc.ListMyInstallments(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

func (cc *CustomerController) HandleGetInstallment(c *fiber.Ctx) error {
	view, err := cc.lc.GetInstallment(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, view)
}

func (cc *CustomerController) HandleMonthlyPayment(c *fiber.Ctx) error {
	var in paymentRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	receipt, err := cc.lc.ProcessMonthlyPayment(c.UserContext(), callerOf(c), c.Params("id"), in.Amount)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, receipt)
}

func (cc *CustomerController) HandleListPayments(c *fiber.Ctx) error {
	list, err := cc.lc.ListMyPayments(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}
