package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	authhandler "github.com/mouthful-app/mouthful/internal/auth/handler"
	authservice "github.com/mouthful-app/mouthful/internal/auth/service"
	autherror "github.com/mouthful-app/mouthful/internal/errors"
	"github.com/mouthful-app/mouthful/internal/media/domain"
	"github.com/mouthful-app/mouthful/internal/media/dto"
	"github.com/mouthful-app/mouthful/internal/media/service"
)

type MediaHandler struct {
	entryService *service.EntryService
	logger       *logrus.Logger
}

func NewMediaHandler(entryService *service.EntryService, logger *logrus.Logger) *MediaHandler {
	return &MediaHandler{entryService: entryService, logger: logger}
}

func userID(c *fiber.Ctx) string {
	claims, ok := c.Locals(authhandler.ClaimsKey).(*authservice.JWTCustomClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	category := domain.Category(c.Params("category"))

	entries, err := h.entryService.ListByCategory(c.Context(), userID(c), category)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]dto.EntryOutput, 0, len(entries))
	for i := range entries {
		out = append(out, dto.NewEntryOutput(&entries[i]))
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *MediaHandler) Get(c *fiber.Ctx) error {
	entry, err := h.entryService.Get(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, autherror.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to get media entry")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get entry"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewEntryOutput(entry))
}

func (h *MediaHandler) Create(c *fiber.Ctx) error {
	var input dto.CreateEntryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	entry, err := h.entryService.Create(c.Context(), userID(c), input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewEntryOutput(entry))
}

func (h *MediaHandler) Patch(c *fiber.Ctx) error {
	var patch map[string]any
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	entry, err := h.entryService.Patch(c.Context(), userID(c), c.Params("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrEntryNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, autherror.ErrUnknownField):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.Status(fiber.StatusOK).JSON(dto.NewEntryOutput(entry))
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	if err := h.entryService.Delete(c.Context(), userID(c), c.Params("id")); err != nil {
		if errors.Is(err, autherror.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to delete media entry")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete entry"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
