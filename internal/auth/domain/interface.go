package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateRefreshToken(ctx context.Context, userID string, hash string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
}
