package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/sirupsen/logrus"
)

// Client sends authenticated API requests: it attaches the bearer token,
// defers to an in-flight refresh instead of racing it, and transparently
// recovers from a single expiry event per call. That is the only retry
// policy: one attempt, no backoff, authentication expiry only.
type Client struct {
	store      *Store
	httpClient *http.Client
	logger     *logrus.Logger
}

// New builds a Client and its Store against the given API base URL
// (e.g. "https://api.mouthful.app"). The shared cookie jar carries the
// refresh cookie for both the store and regular requests.
func New(baseURL string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	jar, _ := cookiejar.New(nil)
	httpClient := &http.Client{Jar: jar}
	store := NewStore(strings.TrimSuffix(baseURL, "/")+"/auth/refresh", httpClient, logger)

	return &Client{
		store:      store,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewWithStore builds a Client over an existing store and HTTP client; the
// client should share the store's cookie jar.
func NewWithStore(store *Store, httpClient *http.Client, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{store: store, httpClient: httpClient, logger: logger}
}

// Store exposes the underlying token store.
func (c *Client) Store() *Store {
	return c.store
}

// Do sends the request with a bearer token, refreshing once on a 401.
// Requests with a body must be rewindable (http.NewRequest sets GetBody for
// the common body types).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// Never race an in-progress rotation with a stale token: wait for the
	// shared outcome first.
	if _, _, err := c.store.AwaitRefresh(ctx); err != nil && ctx.Err() != nil {
		return nil, err
	}

	token, ok := c.store.Token()
	if !ok {
		fresh, err := c.store.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
		}
		token = fresh
	}

	resp, err := c.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Expired mid-flight: refresh once and retry once. A second 401 is the
	// caller's problem.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err = c.store.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	return c.send(req, token)
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		attempt.Body = body
	}
	attempt.Header.Set("Authorization", "Bearer "+token)

	return c.httpClient.Do(attempt)
}

// LoginInput are the credentials for Login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the public user representation returned by the auth endpoints.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login authenticates against the login endpoint. The refresh cookie lands
// in the shared jar; the access token goes into the store, which schedules
// its renewal.
func (c *Client) Login(ctx context.Context, loginURL string, input LoginInput) (*User, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthenticationRequired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login request failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"accessToken"`
		User        User   `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	c.store.SetToken(body.AccessToken)

	return &body.User, nil
}

// Logout revokes the session server-side and drops the local token. Safe to
// call without a session.
func (c *Client) Logout(ctx context.Context, logoutURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoutURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.store.Clear()

	return nil
}
