// middleware/admin.go
package middleware

import (
	"crypto/subtle"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// AdminSecretMiddleware gates tag moderation behind the shared admin secret
// (x-admin-secret header). Distinct from the moderator wallet allowlist: a
// moderator wallet does not imply tag-admin rights and vice versa.
func AdminSecretMiddleware() fiber.Handler {
	secret := os.Getenv("ADMIN_SECRET")
	if secret == "" {
		log.Fatal("❌ ADMIN_SECRET is not set — tag admin routes cannot be authorized")
	}

	return func(c *fiber.Ctx) error {
		provided := c.Get("x-admin-secret")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			log.Printf("🚫 [ADMIN_AUTH] Invalid admin secret for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid admin secret",
			})
		}
		return c.Next()
	}
}
