package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	authhandler "github.com/mouthful-app/mouthful/internal/auth/handler"
	authservice "github.com/mouthful-app/mouthful/internal/auth/service"
	"github.com/mouthful-app/mouthful/internal/metadata/igdb"
)

type MetadataHandler struct {
	igdbClient *igdb.Client
	logger     *logrus.Logger
}

func NewMetadataHandler(igdbClient *igdb.Client, logger *logrus.Logger) *MetadataHandler {
	return &MetadataHandler{igdbClient: igdbClient, logger: logger}
}

func (h *MetadataHandler) SearchGames(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	games, err := h.igdbClient.SearchGames(c.Context(), query, c.QueryInt("limit", 10))
	if err != nil {
		h.logger.WithError(err).Error("igdb search failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "metadata provider unavailable"})
	}

	return c.Status(fiber.StatusOK).JSON(games)
}

func RegisterRoutes(app *fiber.App, h *MetadataHandler, tokenService authservice.TokenGenerator) {
	metadata := app.Group("/api/v1/metadata", authhandler.RequireAccessToken(tokenService))
	metadata.Get("/games", h.SearchGames)
}
