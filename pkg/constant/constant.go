package constant

const (
	// RefreshCookieName is the cookie carrying the raw refresh token.
	RefreshCookieName = "jwt"

	// MinPasswordLength is enforced on registration.
	MinPasswordLength = 6

	// RefreshTokenBytes is the entropy of a raw refresh token before hex encoding.
	RefreshTokenBytes = 32
)
