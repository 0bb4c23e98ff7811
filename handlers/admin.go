// handlers/admin.go
package handlers

import (
	"basedare-system/middleware"
	"basedare-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, moderationService *services.ModerationService) {
	// 🔐 Moderator wallet allowlist: content and claim decisions are attributed
	// to a wallet, so these routes need the wallet header, not the shared secret.
	// Attached per route; a prefix group would also run this for /tags.
	moderator := middleware.ModeratorAuthMiddleware()
	app.Get("/api/admin/moderate", moderator, moderationService.ListPendingContent)
	app.Post("/api/admin/moderate", moderator, moderationService.DecideContent)
	app.Get("/api/admin/claims", moderator, moderationService.ListPendingClaims)
	app.Put("/api/admin/claims", moderator, moderationService.DecideClaim)

	// 🔐 Tag administration uses the operator secret instead. The two scopes
	// stay separate on purpose: one never implies the other.
	adminSecret := middleware.AdminSecretMiddleware()
	app.Get("/api/admin/tags", adminSecret, moderationService.ListPendingTags)
	app.Put("/api/admin/tags", adminSecret, moderationService.DecideTag)
}
