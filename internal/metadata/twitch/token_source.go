// Package twitch obtains and caches the app access token IGDB requires.
package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// expiryMargin is subtracted from the reported lifetime so a token is never
// used right at its expiry boundary.
const expiryMargin = 60 * time.Second

// TokenSource caches a Twitch client-credentials token. It is constructed once
// at startup and injected wherever a token is needed; there is no package-level
// state shared across requests.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	logger       *logrus.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(clientID, clientSecret, tokenURL string, httpClient *http.Client, logger *logrus.Logger) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Token returns the cached app token, fetching a new one when none is held or
// the held one is within the expiry margin.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt.Add(-expiryMargin)) {
		return ts.token, nil
	}

	token, expiresIn, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	ts.logger.WithField("expires_in", expiresIn).Debug("refreshed twitch app token")

	return ts.token, nil
}

// Invalidate discards the cached token so the next Token call fetches a fresh
// one. Called after an upstream 401.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiresAt = time.Time{}
}

func (ts *TokenSource) fetch(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("client_id", ts.clientID)
	form.Set("client_secret", ts.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("twitch token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("twitch token request failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("failed to decode twitch token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("twitch token response missing access_token")
	}

	return body.AccessToken, body.ExpiresIn, nil
}
