// Package llm turns a free-form game description into per-asset image
// prompts and a difficulty by asking a chat-completion model.
//
// # Usage
//
//	client := llm.NewClient(llm.Config{
//	    URL:   "https://router.huggingface.co/v1/chat/completions",
//	    Token: os.Getenv("GAMEGEN_LLM_TOKEN"),
//	    Model: "meta-llama/Llama-3.1-8B-Instruct",
//	})
//
//	result, err := client.Parse(ctx, "a spooky bird game, hard", "flappy-bird")
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrEmptyReply is returned when the model answers with no choices.
var ErrEmptyReply = errors.New("llm: empty reply")

// HTTPError represents a non-200 response from the chat endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm: HTTP %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the chat client.
type Config struct {
	// URL is the OpenAI compatible chat completions endpoint.
	URL string

	// Token is sent as a Bearer token when set.
	Token string

	// Model names the chat model.
	Model string

	// Timeout bounds every call. Defaults to 30 seconds if zero.
	Timeout time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client is a chat-completion client.
type Client struct {
	config Config
	http   *http.Client
	logger *log.Logger
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{config: cfg, http: httpClient, logger: logger.WithPrefix("llm")}
}

const systemPrompt = `You configure a browser game from a player's description.
Answer with one JSON object and nothing else, using these keys:
"character_prompt", "background_prompt", "obstacle_prompt", "gemset_prompt"
(short image prompts, empty string when the description says nothing),
"difficulty" (one of "simple", "medium", "hard", or empty) and
"other_settings" (an object of numeric game parameters, may be empty).`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Parse asks the model to break prompt down for the given game.
func (c *Client) Parse(ctx context.Context, prompt, gameID string) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, errors.New("llm: empty prompt")
	}

	user := fmt.Sprintf("Game: %s\nDescription: %s", gameID, prompt)
	start := time.Now()
	c.logger.Debug("chat request", "game", gameID, "model", c.config.Model)
	reply, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		c.logger.Debug("chat request failed", "game", gameID, "error", err, "took", time.Since(start))
		return Result{}, err
	}
	c.logger.Debug("chat reply", "game", gameID, "bytes", len(reply), "took", time.Since(start))
	return Extract(reply)
}

// complete sends one chat request and returns the first choice's text.
func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{Model: c.config.Model, Messages: messages, Temperature: 0.2})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return chat.Choices[0].Message.Content, nil
}
