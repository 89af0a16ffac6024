package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
	"github.com/ManuelReschke/EduPay/internal/pkg/usercontext"
)

// errBadBody is reported when a request body cannot be decoded.
var errBadBody = errors.New("invalid request body")

// callerOf is the lifecycle identity of the signed-in user, anonymous otherwise.
func callerOf(c *fiber.Ctx) lifecycle.Caller {
	u := usercontext.GetUserContext(c)
	if !u.IsLoggedIn {
		return lifecycle.Caller{}
	}
	return lifecycle.Caller{UserID: u.UserID, Role: u.Role}
}

// statusFor maps a lifecycle error kind to its HTTP status.
func statusFor(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case lifecycle.KindForbidden:
		return fiber.StatusForbidden
	case lifecycle.KindNotFound:
		return fiber.StatusNotFound
	case lifecycle.KindValidation:
		return fiber.StatusUnprocessableEntity
	case lifecycle.KindConflict:
		return fiber.StatusConflict
	case lifecycle.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// fail writes the error envelope. Only lifecycle messages reach the client.
func fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadBody) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	var le *lifecycle.Error
	if !errors.As(err, &le) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "An unexpected error occurred"})
	}
	return c.Status(statusFor(le.Kind)).JSON(fiber.Map{"success": false, "error": le.Message, "kind": le.Kind})
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errBadBody
	}
	return nil
}

// expectedVersion reads the record version from If-Match, falling back to the body value.
func expectedVersion(c *fiber.Ctx, fromBody int64) int64 {
	raw := strings.Trim(strings.TrimPrefix(strings.TrimSpace(c.Get(fiber.HeaderIfMatch)), "W/"), `"`)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
		return v
	}
	return fromBody
}
