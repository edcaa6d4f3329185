package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mouthful-app/mouthful/internal/auth/dto"
	"github.com/mouthful-app/mouthful/internal/auth/service"
	"github.com/mouthful-app/mouthful/pkg/constant"
)

const (
	registerInputKey = "registerInput"

	// ClaimsKey is where RequireAccessToken stores the verified claims.
	ClaimsKey = "claims"
)

// ValidateRegister rejects malformed registration bodies before the handler
// runs, including the minimum password length rule.
func ValidateRegister() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input dto.RegisterInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
		}

		input.Username = strings.TrimSpace(input.Username)
		input.Email = strings.TrimSpace(input.Email)

		if input.Username == "" || input.Email == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username and email are required"})
		}
		if !strings.Contains(input.Email, "@") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
		}
		if len(input.Password) < constant.MinPasswordLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "password must be at least 6 characters"})
		}

		c.Locals(registerInputKey, input)

		return c.Next()
	}
}

// RequireRefreshCookie guards the refresh endpoint: without the cookie the
// handler is never invoked.
func RequireRefreshCookie() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Cookies(constant.RefreshCookieName) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "refresh cookie required"})
		}
		return c.Next()
	}
}

// RequireAccessToken verifies the bearer access token on protected routes.
// An expired token yields 401 so clients know to refresh; anything malformed
// yields 403.
func RequireAccessToken(tokenService service.TokenGenerator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid authorization header"})
		}

		claims, err := tokenService.VerifyAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token expired"})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(ClaimsKey, claims)

		return c.Next()
	}
}
