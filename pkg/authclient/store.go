// Package authclient implements the access-token lifecycle for Mouthful API
// consumers: an in-memory token store with proactive renewal, a deduplicated
// refresh call, and an HTTP wrapper that retries once on token expiry.
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// renewAhead is how long before expiry the scheduled renewal fires.
	renewAhead = 60 * time.Second

	// wakeRefreshWindow is the expiry window that triggers an immediate
	// refresh on wake-up, covering renewal timers missed while suspended.
	wakeRefreshWindow = 5 * time.Minute

	refreshTimeout = 15 * time.Second

	refreshKey = "refresh"
)

type refreshResult struct {
	token string
	err   error
}

// Store is the single source of truth for the access token and its renewal
// schedule. The token lives only in memory; the refresh credential is a
// cookie held by the underlying HTTP client's jar.
type Store struct {
	refreshURL string
	httpClient *http.Client
	logger     *logrus.Logger

	group singleflight.Group

	mu           sync.Mutex
	token        string
	expiresAt    time.Time
	renewTimer   *time.Timer
	refreshing   bool
	initializing bool
	// inflight is non-nil while a refresh is running and is closed when it
	// finishes; lastResult then holds the shared outcome every waiter sees.
	inflight   chan struct{}
	lastResult refreshResult
}

// NewStore builds a Store talking to the given refresh endpoint. When
// httpClient is nil a client with a fresh cookie jar is created; the jar is
// what carries the refresh cookie between calls.
func NewStore(refreshURL string, httpClient *http.Client, logger *logrus.Logger) *Store {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Jar: jar, Timeout: refreshTimeout}
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Store{
		refreshURL:   refreshURL,
		httpClient:   httpClient,
		logger:       logger,
		initializing: true,
	}
}

// Token returns the held access token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

func (s *Store) IsRefreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

func (s *Store) IsInitializing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializing
}

// SetToken replaces the held token and reschedules the renewal timer at
// expiry minus renewAhead. Any previously pending timer is cancelled first,
// so at most one renewal is ever scheduled. A token whose expiry claim cannot
// be decoded is held without a schedule; a non-positive delay sets no timer.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTokenLocked(token)
}

func (s *Store) setTokenLocked(token string) {
	s.cancelTimerLocked()
	s.token = token
	s.expiresAt = time.Time{}

	if token == "" {
		return
	}

	expiresAt, err := tokenExpiry(token)
	if err != nil {
		s.logger.WithError(err).Warn("could not decode token expiry, renewal not scheduled")
		return
	}
	s.expiresAt = expiresAt

	delay := time.Until(expiresAt) - renewAhead
	if delay <= 0 {
		return
	}

	s.renewTimer = time.AfterFunc(delay, s.renewNow)
}

// Clear drops the held token and cancels any pending renewal.
func (s *Store) Clear() {
	s.SetToken("")
}

func (s *Store) cancelTimerLocked() {
	if s.renewTimer != nil {
		s.renewTimer.Stop()
		s.renewTimer = nil
	}
}

func (s *Store) renewNow() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("scheduled token renewal failed")
	}
}

// Refresh exchanges the refresh cookie for a new access token. Concurrent
// callers share a single network call and all observe the same outcome. On
// any failure the held token is cleared: the store never silently keeps a
// token it could not renew.
func (s *Store) Refresh(ctx context.Context) (string, error) {
	ch := s.group.DoChan(refreshKey, s.doRefresh)

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// AwaitRefresh blocks until an in-flight refresh (if any) completes and
// returns its shared outcome. When no refresh is running it returns
// immediately with waited=false. This is the awaitable replacement for
// polling an "is refreshing" flag.
func (s *Store) AwaitRefresh(ctx context.Context) (waited bool, token string, err error) {
	s.mu.Lock()
	ch := s.inflight
	s.mu.Unlock()

	if ch == nil {
		return false, "", nil
	}

	select {
	case <-ch:
	case <-ctx.Done():
		return true, "", ctx.Err()
	}

	s.mu.Lock()
	res := s.lastResult
	s.mu.Unlock()

	return true, res.token, res.err
}

// Resume attempts to silently restore a session from the refresh cookie,
// typically once at startup. Failure is swallowed: no cookie simply means
// the user is not logged in. Initialization is marked complete either way.
func (s *Store) Resume(ctx context.Context) {
	defer s.finishInitializing()

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WithError(err).Debug("no session to resume")
	}
}

// SkipResume marks initialization complete without attempting a refresh,
// for flows that start on an unauthenticated page.
func (s *Store) SkipResume() {
	s.finishInitializing()
}

func (s *Store) finishInitializing() {
	s.mu.Lock()
	s.initializing = false
	s.mu.Unlock()
}

// OnWake refreshes proactively when the held token expires within
// wakeRefreshWindow. Call it when the process resumes after a suspend,
// where a scheduled renewal may have been missed.
func (s *Store) OnWake(ctx context.Context) {
	s.mu.Lock()
	held := s.token != ""
	expiringSoon := !s.expiresAt.IsZero() && time.Until(s.expiresAt) <= wakeRefreshWindow
	s.mu.Unlock()

	if !held || !expiringSoon {
		return
	}

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("wake-up token refresh failed")
	}
}

// doRefresh is the single-flight worker: it performs the actual network call
// and records the shared outcome for AwaitRefresh waiters.
func (s *Store) doRefresh() (any, error) {
	done := make(chan struct{})
	s.mu.Lock()
	s.inflight = done
	s.refreshing = true
	s.mu.Unlock()

	token, err := s.fetchAccessToken()

	s.mu.Lock()
	if err != nil {
		s.setTokenLocked("")
	} else {
		s.setTokenLocked(token)
	}
	s.lastResult = refreshResult{token: token, err: err}
	s.refreshing = false
	s.inflight = nil
	s.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Store) fetchAccessToken() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.refreshURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrSessionExpired
	default:
		return "", fmt.Errorf("refresh request failed: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}

	return body.AccessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; only the
// server verifies tokens, the client just needs the schedule.
func tokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
