package handler

import (
	"github.com/gofiber/fiber/v2"

	authhandler "github.com/mouthful-app/mouthful/internal/auth/handler"
	authservice "github.com/mouthful-app/mouthful/internal/auth/service"
)

func RegisterRoutes(app *fiber.App, h *MediaHandler, tokenService authservice.TokenGenerator) {
	media := app.Group("/api/v1/media", authhandler.RequireAccessToken(tokenService))
	media.Get("/:category", h.List)
	media.Post("/", h.Create)
	media.Get("/entry/:id", h.Get)
	media.Patch("/entry/:id", h.Patch)
	media.Delete("/entry/:id", h.Delete)
}
