package authclient

import "errors"

var (
	// ErrAuthenticationRequired means no session could be established before
	// sending a request; the UI should route to login.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrSessionExpired means an established session could not be renewed.
	ErrSessionExpired = errors.New("session expired")
)
