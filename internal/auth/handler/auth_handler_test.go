package handler_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mouthful-app/mouthful/internal/auth/domain"
	"github.com/mouthful-app/mouthful/internal/auth/dto"
	"github.com/mouthful-app/mouthful/internal/auth/handler"
	"github.com/mouthful-app/mouthful/internal/auth/service"
	"github.com/mouthful-app/mouthful/internal/mocks"
)

func newTestApp(t *testing.T, repo domain.UserRepository, tokenService service.TokenGenerator) *fiber.App {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	userService := service.NewUserService(repo, tokenService)
	authHandler := handler.NewAuthHandler(userService, tokenService, "", logger)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	return app
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokenService := mocks.NewMockTokenGenerator(ctrl)
	app := newTestApp(t, mockRepo, mockTokenService)

	t.Run("success", func(t *testing.T) {
		input := dto.RegisterInput{Username: "tester", Email: "test@example.com", Password: "secret1"}

		mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).Return(nil, nil)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := app.Test(jsonRequest("POST", "/auth/register", input))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body struct {
			User dto.UserOutput `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, input.Email, body.User.Email)
		assert.NotEmpty(t, body.User.ID)
	})

	t.Run("password too short", func(t *testing.T) {
		input := dto.RegisterInput{Username: "tester", Email: "test@example.com", Password: "short"}

		resp, err := app.Test(jsonRequest("POST", "/auth/register", input))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		input := dto.RegisterInput{Username: "tester", Email: "taken@example.com", Password: "secret1"}

		mockRepo.EXPECT().GetByEmail(gomock.Any(), input.Email).
			Return(&domain.User{ID: "user-1", Email: input.Email}, nil)

		resp, err := app.Test(jsonRequest("POST", "/auth/register", input))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/register", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokenService := mocks.NewMockTokenGenerator(ctrl)
	app := newTestApp(t, mockRepo, mockTokenService)

	mockRepo.EXPECT().GetByEmail(gomock.Any(), "nobody@example.com").Return(nil, nil)

	resp, err := app.Test(jsonRequest("POST", "/auth/login", dto.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, findCookie(resp, "jwt"))
}

func TestRefresh_Guard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokenService := mocks.NewMockTokenGenerator(ctrl)
	app := newTestApp(t, mockRepo, mockTokenService)

	t.Run("missing cookie is rejected by middleware", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/auth/refresh", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown token yields 403", func(t *testing.T) {
		mockTokenService.EXPECT().HashRefresh("bogus").Return("bogus-hash")
		mockRepo.EXPECT().GetByRefreshTokenHash(gomock.Any(), "bogus-hash").Return(nil, nil)

		req := httptest.NewRequest("GET", "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "bogus"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("expired token is revoked and yields 403", func(t *testing.T) {
		hash := "stale-hash"
		expires := time.Now().Add(-time.Hour)
		user := &domain.User{ID: "user-123", RefreshTokenHash: &hash, RefreshTokenExpiresAt: &expires}

		mockTokenService.EXPECT().HashRefresh("stale").Return(hash)
		mockRepo.EXPECT().GetByRefreshTokenHash(gomock.Any(), hash).Return(user, nil)
		mockRepo.EXPECT().ClearRefreshToken(gomock.Any(), user.ID).Return(nil)

		req := httptest.NewRequest("GET", "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "stale"})
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestLogout_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokenService := mocks.NewMockTokenGenerator(ctrl)
	app := newTestApp(t, mockRepo, mockTokenService)

	// Without a cookie, twice.
	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/auth/logout", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	// With a cookie whose session was already revoked.
	mockTokenService.EXPECT().HashRefresh("raw-refresh").Return("refresh-hash")
	mockRepo.EXPECT().GetByRefreshTokenHash(gomock.Any(), "refresh-hash").Return(nil, nil)

	req := httptest.NewRequest("GET", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "raw-refresh"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	cookie := findCookie(resp, "jwt")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

// TestLoginThenRefresh_EndToEnd drives login and refresh through the real
// token service: the raw refresh token must appear only in the cookie, its
// sha256 must equal the persisted hash, and refresh must mint a different
// access token for the same identity.
func TestLoginThenRefresh_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	tokenService := service.NewTokenService("end-to-end-test-secret-key-0123456789", 15, 30)
	app := newTestApp(t, mockRepo, tokenService)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           "user-123",
		Username:     "tester",
		Email:        "a@b.com",
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now(),
	}

	var storedHash string
	var storedExpiry time.Time

	mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	mockRepo.EXPECT().UpdateRefreshToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, hash string, expiresAt time.Time) error {
			storedHash = hash
			storedExpiry = expiresAt
			return nil
		})

	resp, err := app.Test(jsonRequest("POST", "/auth/login", dto.LoginInput{
		Email:    "a@b.com",
		Password: "secret1",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	rawBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var loginBody dto.LoginResponse
	require.NoError(t, json.Unmarshal(rawBody, &loginBody))
	assert.Len(t, strings.Split(loginBody.AccessToken, "."), 3)
	assert.Equal(t, user.ID, loginBody.User.ID)

	cookie := findCookie(resp, "jwt")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	// Confidentiality: the raw refresh token is in the cookie only.
	assert.NotContains(t, string(rawBody), cookie.Value)

	// The persisted value is exactly sha256(raw).
	sum := sha256.Sum256([]byte(cookie.Value))
	assert.Equal(t, hex.EncodeToString(sum[:]), storedHash)

	// iat has second granularity; wait so the refreshed token differs.
	time.Sleep(1100 * time.Millisecond)

	sessionUser := *user
	sessionUser.RefreshTokenHash = &storedHash
	sessionUser.RefreshTokenExpiresAt = &storedExpiry
	mockRepo.EXPECT().GetByRefreshTokenHash(gomock.Any(), storedHash).Return(&sessionUser, nil)

	refreshReq := httptest.NewRequest("GET", "/auth/refresh", nil)
	refreshReq.AddCookie(&http.Cookie{Name: "jwt", Value: cookie.Value})
	refreshResp, err := app.Test(refreshReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, refreshResp.StatusCode)

	var refreshBody dto.AccessTokenResponse
	require.NoError(t, json.NewDecoder(refreshResp.Body).Decode(&refreshBody))
	assert.NotEqual(t, loginBody.AccessToken, refreshBody.AccessToken)

	claims, err := tokenService.VerifyAccessToken(refreshBody.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
}
