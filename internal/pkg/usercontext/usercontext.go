package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/app/models"
)

// UserContext represents the signed-in user of a request
type UserContext struct {
	UserID     string      `json:"user_id"`
	FullName   string      `json:"full_name"`
	Role       models.Role `json:"role"`
	IsLoggedIn bool        `json:"is_logged_in"`
}

func (u UserContext) IsAdmin() bool {
	return u.IsLoggedIn && u.Role == models.RoleAdmin
}

// Set stores the user context on the request
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(localsKey, u)
}

// GetUserContext returns the user context of the request, anonymous if none was set
func GetUserContext(c *fiber.Ctx) UserContext {
	if u, ok := c.Locals(localsKey).(UserContext); ok {
		return u
	}
	return UserContext{}
}
