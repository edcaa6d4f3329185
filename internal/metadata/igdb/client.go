// Package igdb proxies game metadata lookups to the IGDB API.
package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mouthful-app/mouthful/internal/metadata/twitch"
)

type Game struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	FirstReleaseDate int64   `json:"first_release_date,omitempty"`
	Summary          string  `json:"summary,omitempty"`
	Cover            *Cover  `json:"cover,omitempty"`
	Rating           float64 `json:"rating,omitempty"`
}

type Cover struct {
	URL string `json:"url"`
}

type Client struct {
	baseURL     string
	clientID    string
	tokenSource *twitch.TokenSource
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewClient(baseURL, clientID string, tokenSource *twitch.TokenSource, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:     baseURL,
		clientID:    clientID,
		tokenSource: tokenSource,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// SearchGames runs an APIcalypse search against the games endpoint.
func (c *Client) SearchGames(ctx context.Context, query string, limit int) ([]Game, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	body := fmt.Sprintf("search %q; fields name,first_release_date,summary,rating,cover.url; limit %d;", query, limit)

	data, err := c.post(ctx, "/games", body)
	if err != nil {
		return nil, err
	}

	var games []Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("failed to decode igdb response: %w", err)
	}

	return games, nil
}

// post sends an APIcalypse request. A 401 invalidates the cached app token and
// the request is retried once with a fresh one; any second failure surfaces.
func (c *Client) post(ctx context.Context, path, body string) ([]byte, error) {
	resp, err := c.doOnce(ctx, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.logger.Debug("igdb token rejected, retrying with a fresh one")
		c.tokenSource.Invalidate()

		resp, err = c.doOnce(ctx, path, body)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("igdb request failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) doOnce(ctx context.Context, path, body string) (*http.Response, error) {
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain twitch token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("igdb request failed: %w", err)
	}

	return resp, nil
}
