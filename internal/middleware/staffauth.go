package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const staffKeyHeader = "X-Staff-Key"

// StaffAuth guards staff-only routes with a shared API key. With no key
// configured the routes are disabled entirely rather than left open.
func StaffAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return fiber.NewError(http.StatusNotFound, "staff API disabled")
		}
		supplied := c.Get(staffKeyHeader)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
			return fiber.NewError(http.StatusUnauthorized, "invalid staff key")
		}
		return c.Next()
	}
}
