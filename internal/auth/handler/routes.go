package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/auth")
	auth.Post("/register", ValidateRegister(), h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/refresh", RequireRefreshCookie(), h.Refresh)
	auth.Get("/logout", h.Logout)
}
