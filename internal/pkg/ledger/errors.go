package ledger

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/app/repository"
)

var errBadRequest = errors.New("bad request")

// respondError maps store errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "internal_server_error"
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, code = fiber.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrVersionMismatch):
		status, code = fiber.StatusPreconditionFailed, "precondition_failed"
	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, models.ErrPlanNotActive),
		errors.Is(err, models.ErrPlanNotAwaitingCheckout):
		status, code = fiber.StatusConflict, "conflict"
	case errors.Is(err, repository.ErrInvalid):
		status, code = fiber.StatusUnprocessableEntity, "unprocessable_entity"
	case errors.Is(err, repository.ErrInvalidFilter), errors.Is(err, errBadRequest):
		status, code = fiber.StatusBadRequest, "bad_request"
	default:
		log.Errorf("[Ledger] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": code, "message": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": code, "message": err.Error()})
}

// errorHandler renders fiber errors (unknown routes, body limits) as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": "request_failed", "message": err.Error()})
}
