package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		character  string
		difficulty string
	}{
		{"bare", `{"character_prompt":"pink robot","difficulty":"hard"}`, "pink robot", "hard"},
		{"fenced", "```json\n{\"character_prompt\":\"ghost\",\"difficulty\":\"Simple\"}\n```", "ghost", "simple"},
		{"prose", `Sure! Here you go: {"character_prompt":"cat"} Enjoy.`, "cat", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Extract(tc.reply)
			require.NoError(t, err)
			assert.Equal(t, tc.character, r.PromptFor(KindCharacter))
			assert.Equal(t, tc.difficulty, r.Difficulty)
		})
	}
}

func TestExtractNoJSON(t *testing.T) {
	_, err := Extract("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractOtherSettingsKeepsNumbers(t *testing.T) {
	r, err := Extract(`{"other_settings":{"speed":5,"gravity":"0.3","mood":"dark"}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"speed": 5, "gravity": 0.3}, r.OtherSettings)
}

func TestPromptForTrims(t *testing.T) {
	r := Result{GemSetPrompt: "  candy hearts  "}
	assert.Equal(t, "candy hearts", r.PromptFor(KindGemSet))
	assert.Equal(t, "", r.PromptFor("unknown"))
}

func TestParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "crossy-road")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "```json\n{\"obstacle_prompt\":\"orange spider\",\"difficulty\":\"medium\"}\n```"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, Token: "secret", Model: "test-model"})
	r, err := c.Parse(context.Background(), "spiders everywhere", "crossy-road")
	require.NoError(t, err)
	assert.Equal(t, "orange spider", r.PromptFor(KindObstacle))
	assert.Equal(t, "medium", r.Difficulty)
}

func TestParseLogsCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"difficulty":"hard"}`}},
			},
		})
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	c := NewClient(Config{URL: server.URL, Model: "test-model", Logger: logger})

	_, err := c.Parse(context.Background(), "hard birds", "flappy-bird")
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "chat request")
	assert.Contains(t, out, "chat reply")
	assert.Contains(t, out, "flappy-bird")
}

func TestParseHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL})
	_, err := c.Parse(context.Background(), "anything", "flappy-bird")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestParseTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Parse(context.Background(), "anything", "flappy-bird")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseEmptyPrompt(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1"})
	_, err := c.Parse(context.Background(), "  ", "flappy-bird")
	assert.Error(t, err)
}
