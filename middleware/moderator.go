// middleware/moderator.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ModeratorAuthMiddleware gates content and claim moderation behind the wallet
// allowlist (MODERATOR_WALLETS, comma-separated). The client sends its wallet
// in x-moderator-wallet on every request; there is no session.
//
// This scope is intentionally separate from the admin-secret scope — the two
// gate different resource classes and are never unified.
func ModeratorAuthMiddleware() fiber.Handler {
	allowlistEnv := os.Getenv("MODERATOR_WALLETS")
	if allowlistEnv == "" {
		log.Fatal("❌ MODERATOR_WALLETS is not set — moderation routes cannot be authorized")
	}

	allowed := map[string]bool{}
	for _, w := range strings.Split(allowlistEnv, ",") {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			allowed[w] = true
		}
	}

	return func(c *fiber.Ctx) error {
		wallet := strings.ToLower(strings.TrimSpace(c.Get("x-moderator-wallet")))
		if wallet == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "missing x-moderator-wallet header",
			})
		}
		if !allowed[wallet] {
			log.Printf("🚫 [MOD_AUTH] Wallet %s not on moderator allowlist for %s", wallet, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "wallet is not authorized to moderate",
			})
		}

		c.Locals("moderator_wallet", wallet)
		return c.Next()
	}
}
