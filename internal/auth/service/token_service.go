package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/mouthful-app/mouthful/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mouthful-app/mouthful/pkg/constant"
)

type TokenGenerator interface {
	GenerateAccess(userID, email, username string) (string, time.Time, error)
	GenerateRefresh() (raw string, hash string, err error)
	HashRefresh(raw string) string
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	GetRefreshTokenExpiry() time.Duration
}

type TokenService struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func NewTokenService(accessSecret string, accessMinutes, refreshDays int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

// GenerateAccess signs a short-lived HS256 access token carrying the public
// identity claims consumed by API middleware and by the client scheduler.
func (ts *TokenService) GenerateAccess(userID, email, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.AccessTokenExpiry)

	claims := JWTCustomClaims{
		UserID:   userID,
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// GenerateRefresh produces a high-entropy opaque refresh token. Only the hash
// is ever stored; the raw value goes to the client as an HTTP-only cookie.
func (ts *TokenService) GenerateRefresh() (string, string, error) {
	buf := make([]byte, constant.RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	raw := hex.EncodeToString(buf)

	return raw, ts.HashRefresh(raw), nil
}

func (ts *TokenService) HashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.AccessTokenSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}
