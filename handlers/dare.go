// handlers/dare.go
package handlers

import (
	"basedare-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDareRoutes(app *fiber.App, dareService *services.DareService) {
	// 🔓 Public reads
	app.Get("/api/dares/nearby", dareService.GetNearbyDares)
	app.Get("/api/bounties/:short_id", dareService.GetDareByShortID)
	app.Get("/api/invite/:token", dareService.ResolveInvite)

	// Creation flow (simulated or live init + funding registration)
	app.Post("/api/bounties", dareService.CreateDareSimulated)
	app.Post("/api/bounties/init", dareService.InitDare)
	app.Post("/api/bounties/register", dareService.RegisterFunding)

	// Per-dare actions
	app.Post("/api/bounties/:short_id/proof", dareService.SubmitProof)
	app.Post("/api/bounties/:short_id/vote", dareService.CastVote)
	app.Post("/api/bounties/:short_id/claim-request", dareService.RequestClaim)
}
