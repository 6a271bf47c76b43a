package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ContextUserKey is the fiber.Ctx local under which the authenticated user id
// is stored.
const ContextUserKey = "user_id"

// NewMiddleware returns a Fiber handler that validates the Bearer token and
// stores the user id in request locals.
func NewMiddleware(mgr *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "malformed authorization header")
		}
		userID, err := mgr.Validate(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(ContextUserKey, userID)
		return c.Next()
	}
}

// UserID extracts the authenticated user id set by the middleware.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(ContextUserKey).(string)
	return uid
}
