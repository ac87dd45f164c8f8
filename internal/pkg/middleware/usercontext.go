package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const userIDLocalKey = "app_user_id"

// UserHeaderMiddleware resolves the current user from the X-App-User-ID
// header set by the fronting auth layer. Session/identity verification lives
// there; this service only needs a stable user identifier.
func UserHeaderMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get("X-App-User-ID"))
		if raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Locals(userIDLocalKey, uint(id))
			}
		}
		return c.Next()
	}
}

// UserIDFromContext returns the resolved user id or 0 when the request
// carried no valid user header.
func UserIDFromContext(c *fiber.Ctx) uint {
	if id, ok := c.Locals(userIDLocalKey).(uint); ok {
		return id
	}
	return 0
}
