package igdb_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouthful-app/mouthful/internal/metadata/igdb"
	"github.com/mouthful-app/mouthful/internal/metadata/twitch"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testBackend bundles a fake Twitch token endpoint and a fake IGDB endpoint
// behind one server so both share a client.
type testBackend struct {
	srv          *httptest.Server
	tokenFetches int32
	apiRequests  int32
	handleAPI    func(w http.ResponseWriter, r *http.Request, n int32)
}

func newBackend(handleAPI func(w http.ResponseWriter, r *http.Request, n int32)) *testBackend {
	b := &testBackend{handleAPI: handleAPI}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/token") {
			n := atomic.AddInt32(&b.tokenFetches, 1)
			fmt.Fprintf(w, `{"access_token":"app-token-%d","expires_in":3600}`, n)
			return
		}
		b.handleAPI(w, r, atomic.AddInt32(&b.apiRequests, 1))
	}))
	return b
}

func (b *testBackend) client() *igdb.Client {
	ts := twitch.NewTokenSource("test-client-id", "secret", b.srv.URL+"/token", b.srv.Client(), discardLogger())
	return igdb.NewClient(b.srv.URL, "test-client-id", ts, b.srv.Client(), discardLogger())
}

func TestSearchGames(t *testing.T) {
	backend := newBackend(func(w http.ResponseWriter, r *http.Request, _ int32) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "test-client-id", r.Header.Get("Client-ID"))
		assert.Equal(t, "Bearer app-token-1", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `search "hades"`)
		assert.Contains(t, string(body), "limit 5")

		fmt.Fprint(w, `[{"id":113112,"name":"Hades","rating":92.5,"cover":{"url":"//images.igdb.com/hades.jpg"}}]`)
	})
	defer backend.srv.Close()

	games, err := backend.client().SearchGames(context.Background(), "hades", 5)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0].Name)
	require.NotNil(t, games[0].Cover)
	assert.Equal(t, "//images.igdb.com/hades.jpg", games[0].Cover.URL)
}

func TestSearchGames_LimitClamped(t *testing.T) {
	backend := newBackend(func(w http.ResponseWriter, r *http.Request, _ int32) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "limit 10")
		fmt.Fprint(w, `[]`)
	})
	defer backend.srv.Close()

	_, err := backend.client().SearchGames(context.Background(), "hades", 0)
	require.NoError(t, err)

	_, err = backend.client().SearchGames(context.Background(), "hades", 500)
	require.NoError(t, err)
}

// A 401 from IGDB invalidates the cached app token: the request is retried
// exactly once with a freshly fetched token.
func TestSearchGames_RetriesOnceAfter401(t *testing.T) {
	backend := newBackend(func(w http.ResponseWriter, r *http.Request, n int32) {
		if n == 1 {
			assert.Equal(t, "Bearer app-token-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer app-token-2", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id":1,"name":"Hades"}]`)
	})
	defer backend.srv.Close()

	games, err := backend.client().SearchGames(context.Background(), "hades", 5)
	require.NoError(t, err)
	require.Len(t, games, 1)

	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.apiRequests))
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.tokenFetches))
}

func TestSearchGames_SecondRejectionSurfaces(t *testing.T) {
	backend := newBackend(func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer backend.srv.Close()

	_, err := backend.client().SearchGames(context.Background(), "hades", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	// One retry, no more.
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.apiRequests))
}

func TestSearchGames_UpstreamError(t *testing.T) {
	backend := newBackend(func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer backend.srv.Close()

	_, err := backend.client().SearchGames(context.Background(), "hades", 5)
	assert.Error(t, err)
}
