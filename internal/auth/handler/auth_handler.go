package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/mouthful-app/mouthful/internal/auth/dto"
	"github.com/mouthful-app/mouthful/internal/auth/service"
	autherror "github.com/mouthful-app/mouthful/internal/errors"
	"github.com/mouthful-app/mouthful/pkg/constant"
)

type AuthHandler struct {
	userService  *service.UserService
	tokenService service.TokenGenerator
	cookieDomain string
	logger       *logrus.Logger
}

func NewAuthHandler(userService *service.UserService, tokenService service.TokenGenerator,
	cookieDomain string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		cookieDomain: cookieDomain,
		logger:       logger,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input, ok := c.Locals(registerInputKey).(dto.RegisterInput)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("registration failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": dto.UserOutput{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	result, err := h.userService.Login(c.Context(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("login failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}

	h.setRefreshCookie(c, result.RawRefreshToken, time.Unix(result.RefreshExpiresAt, 0))

	// The raw refresh token travels only in the cookie, never in the body.
	return c.Status(fiber.StatusOK).JSON(dto.LoginResponse{
		AccessToken: result.AccessToken,
		User:        result.User,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	rawRefresh := c.Cookies(constant.RefreshCookieName)

	accessToken, err := h.userService.Refresh(c.Context(), rawRefresh)
	if err != nil {
		if errors.Is(err, autherror.ErrRefreshTokenNotFound) || errors.Is(err, autherror.ErrRefreshTokenExpired) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("refresh failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refresh failed"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.AccessTokenResponse{AccessToken: accessToken})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	rawRefresh := c.Cookies(constant.RefreshCookieName)

	if err := h.userService.Logout(c.Context(), rawRefresh); err != nil {
		h.logger.WithError(err).Error("logout failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
	}

	h.clearRefreshCookie(c)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, value string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cookieDomain,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}
