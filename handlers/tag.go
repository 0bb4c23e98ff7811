// handlers/tag.go
package handlers

import (
	"basedare-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTagRoutes(app *fiber.App, tagService *services.TagService) {
	app.Get("/api/tags", tagService.QueryTags) // ?tag= availability, ?wallet= list
	app.Get("/api/tags/kick-code", tagService.NewKickCode)
	app.Post("/api/tags", tagService.SubmitClaim)

	app.Get("/api/creator/:tag", tagService.GetCreator)
}
