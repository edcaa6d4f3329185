package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	// RefreshTokenHash holds sha256(raw refresh token); the raw value is never
	// persisted. Both fields are nil when the user has no active session.
	RefreshTokenHash      *string
	RefreshTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
