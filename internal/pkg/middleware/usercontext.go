package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/EduPay/app/models"
	"github.com/ManuelReschke/EduPay/internal/pkg/usercontext"
)

// UserContext loads the signed-in user from the session into the request.
// Requests without a usable session continue as anonymous.
func UserContext(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Warnf("[Session] Failed to load session: %v", err)
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		userID, _ := sess.Get(usercontext.KeyUserID).(string)
		if userID == "" {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}
		role, _ := sess.Get(usercontext.KeyRole).(string)
		name, _ := sess.Get(usercontext.KeyFullName).(string)

		usercontext.Set(c, usercontext.UserContext{
			UserID:     userID,
			FullName:   name,
			Role:       models.Role(role),
			IsLoggedIn: true,
		})
		return c.Next()
	}
}
