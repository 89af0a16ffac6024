package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/EduPay/internal/pkg/lifecycle"
	appsession "github.com/ManuelReschke/EduPay/internal/pkg/session"
	"github.com/ManuelReschke/EduPay/internal/pkg/usercontext"
)

// AuthController handles sign-up, sign-in and the session lifecycle
type AuthController struct {
	lc       *lifecycle.Lifecycle
	sessions *session.Store
}

func NewAuthController(lc *lifecycle.Lifecycle, sessions *session.Store) *AuthController {
	return &AuthController{lc: lc, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// HandleSignUp registers a customer account
func (ac *AuthController) HandleSignUp(c *fiber.Ctx) error {
	var in lifecycle.SignUpInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	user, err := ac.lc.SignUp(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, user)
}

// HandleLogin verifies the credentials and binds the user to the session
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in loginRequest
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	caller, user, err := ac.lc.SignIn(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return fail(c, err)
	}

	if err := appsession.SetSessionValues(ac.sessions, c, map[string]interface{}{
		usercontext.KeyUserID:   caller.UserID,
		usercontext.KeyRole:     string(caller.Role),
		usercontext.KeyFullName: user.FullName,
	}); err != nil {
		log.Errorf("[Auth] Failed to store session for %s: %v", caller.UserID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "Unable to sign in right now"})
	}
	return respond(c, fiber.StatusOK, user)
}

// HandleLogout ends the session
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := appsession.Destroy(ac.sessions, c); err != nil {
		log.Warnf("[Auth] Failed to destroy session: %v", err)
	}
	return respond(c, fiber.StatusOK, nil)
}

// HandleMe returns the signed-in account
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.lc.CurrentUser(c.UserContext(), callerOf(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, user)
}
