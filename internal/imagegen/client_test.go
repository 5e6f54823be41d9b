package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/gamegen/internal/assets"
)

// fakeModels serves a text-to-image endpoint at /generate that answers
// "img:<seed>" and a removal endpoint at /remove that prefixes "clear:".
type fakeModels struct {
	generated atomic.Int32
	removed   atomic.Int32
	failSeed  int64
}

func (f *fakeModels) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.generated.Add(1)
		if f.failSeed != 0 && req.Parameters.Seed == f.failSeed {
			http.Error(w, "model is loading", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, "img:"+strconv.FormatInt(req.Parameters.Seed, 10))
	})
	mux.HandleFunc("/remove", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.removed.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(append([]byte("clear:"), body...))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestClient(s *httptest.Server, cache assets.Store) *Client {
	return NewClient(Config{
		URL:                  s.URL + "/generate",
		BackgroundRemovalURL: s.URL + "/remove",
		Token:                "hf_test",
		Cache:                cache,
	})
}

func TestGenerateSendsPromptAndSeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pink robot", req.Inputs)
		assert.Equal(t, int64(7), req.Parameters.Seed)
		w.Write([]byte("png"))
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, Token: "hf_test"})
	img, err := c.Generate(context.Background(), "pink robot", 7)
	require.NoError(t, err)
	assert.Equal(t, "png", string(img))
}

func TestAssetBackgroundRemoval(t *testing.T) {
	tests := []struct {
		assetType string
		want      string
	}{
		{"character", "clear:img:1"},
		{"obstacle", "clear:img:1"},
		{"somethingNew", "clear:img:1"},
		{"background", "img:1"},
		{"ground", "img:1"},
		{"roadTexture", "img:1"},
	}
	for _, tc := range tests {
		t.Run(tc.assetType, func(t *testing.T) {
			models := &fakeModels{}
			c := newTestClient(models.server(t), nil)
			img, err := c.Asset(context.Background(), tc.assetType, "anything", 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(img))
		})
	}
}

func TestGemSet(t *testing.T) {
	models := &fakeModels{}
	c := newTestClient(models.server(t), nil)

	urls, err := c.GemSet(context.Background(), "metal gears", 42)
	require.NoError(t, err)
	require.Len(t, urls, GemSetSize)
	for i, u := range urls {
		require.True(t, strings.HasPrefix(u, "data:image/png;base64,"), u)
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:image/png;base64,"))
		require.NoError(t, err)
		assert.Equal(t, "clear:img:"+strconv.Itoa(42+i), string(raw))
	}
	assert.Equal(t, int32(GemSetSize), models.generated.Load())
	assert.Equal(t, int32(GemSetSize), models.removed.Load())
}

func TestGemSetAllOrNothing(t *testing.T) {
	models := &fakeModels{failSeed: 44}
	c := newTestClient(models.server(t), nil)

	urls, err := c.GemSet(context.Background(), "metal gears", 42)
	assert.Nil(t, urls)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	// Generation stops at the failing gem.
	assert.Equal(t, int32(3), models.generated.Load())
}

func TestAssetCache(t *testing.T) {
	models := &fakeModels{}
	server := models.server(t)
	cache := assets.FSStore(filepath.Join(t.TempDir(), "cache"))
	c := newTestClient(server, cache)

	first, err := c.Asset(context.Background(), "character", "ghost", 5)
	require.NoError(t, err)
	second, err := c.Asset(context.Background(), "character", "ghost", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), models.generated.Load())

	_, err = c.Asset(context.Background(), "character", "ghost", 6)
	require.NoError(t, err)
	assert.Equal(t, int32(2), models.generated.Load())
}

func TestEmptyImage(t *testing.T) {
	models := &fakeModels{}
	server := models.server(t)
	c := NewClient(Config{URL: server.URL + "/empty"})

	_, err := c.Generate(context.Background(), "anything", 1)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Generate(context.Background(), "slow", 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRemoveBackgroundDisabled(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1"})
	img, err := c.RemoveBackground(context.Background(), []byte("as is"))
	require.NoError(t, err)
	assert.Equal(t, "as is", string(img))
}

func TestGenerateEmptyPrompt(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1"})
	_, err := c.Generate(context.Background(), " ", 1)
	assert.Error(t, err)
}
