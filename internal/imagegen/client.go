// Package imagegen calls the text-to-image and background removal models
// that back asset generation.
//
// # Usage
//
//	client := imagegen.NewClient(imagegen.Config{
//	    URL:                  cfg.ImageAPI.URL,
//	    BackgroundRemovalURL: cfg.ImageAPI.BackgroundRemovalURL,
//	    Token:                cfg.ImageAPI.Token,
//	    Cache:                store,
//	})
//
//	png, err := client.Asset(ctx, "character", "a pink robot with wings", 42)
//	gems, err := client.GemSet(ctx, "shiny metallic gears", 42)
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// GemSetSize is the number of images in a generated gem set.
const GemSetSize = 6

// ErrEmptyImage is returned when a model answers 200 with no image.
var ErrEmptyImage = errors.New("imagegen: empty image")

// HTTPError represents a non-200 response from a model endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("imagegen: HTTP %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the image client.
type Config struct {
	// URL is the text-to-image endpoint.
	URL string

	// BackgroundRemovalURL is the background removal endpoint. When empty
	// images are returned as generated.
	BackgroundRemovalURL string

	// Token is sent as a Bearer token when set.
	Token string

	// Timeout bounds every model call. Defaults to 60 seconds if zero.
	Timeout time.Duration

	// Cache stores finished images. Optional.
	Cache assets.Store

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client generates game images.
type Client struct {
	config Config
	http   *http.Client
	logger *log.Logger
}

// NewClient creates a client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = protocol.Discard()
	}
	return &Client{config: cfg, http: httpClient, logger: logger.WithPrefix("imagegen")}
}

// KeepsBackground reports whether an asset type is used full-frame and so
// skips background removal.
func KeepsBackground(assetType string) bool {
	switch assetType {
	case "background", "ground", "roadTexture":
		return true
	}
	return false
}

// DataURL wraps PNG bytes as a data URL.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

type generateRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		Seed int64 `json:"seed"`
	} `json:"parameters"`
}

// Generate renders prompt with the given seed.
func (c *Client) Generate(ctx context.Context, prompt string, seed int64) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("imagegen: empty prompt")
	}
	var body generateRequest
	body.Inputs = prompt
	body.Parameters.Seed = seed

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: marshal request: %w", err)
	}
	return c.doRequest(ctx, c.config.URL, "application/json", data)
}

// RemoveBackground returns img with a transparent background.
func (c *Client) RemoveBackground(ctx context.Context, img []byte) ([]byte, error) {
	if c.config.BackgroundRemovalURL == "" {
		return img, nil
	}
	return c.doRequest(ctx, c.config.BackgroundRemovalURL, "image/png", img)
}

// Asset generates one image for an asset type. Types that keep their
// background skip removal. Results are cached by model, type, prompt and
// seed.
func (c *Client) Asset(ctx context.Context, assetType, prompt string, seed int64) ([]byte, error) {
	key := assets.Key(c.config.URL, assetType, prompt, seed)
	if c.config.Cache != nil {
		data, err := c.config.Cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug("cache hit", "type", assetType, "key", key)
			return data, nil
		}
		if !errors.Is(err, assets.Missing) {
			c.logger.Warn("cache read failed", "error", err)
		}
	}

	img, err := c.Generate(ctx, prompt, seed)
	if err != nil {
		return nil, err
	}
	if !KeepsBackground(assetType) {
		if img, err = c.RemoveBackground(ctx, img); err != nil {
			return nil, err
		}
	}

	if c.config.Cache != nil {
		if err := c.config.Cache.Set(ctx, key, img); err != nil {
			c.logger.Warn("cache write failed", "error", err)
		}
	}
	return img, nil
}

// GemSet generates GemSetSize images with seeds base, base+1, ... and
// returns them as data URLs. One failure fails the whole set.
func (c *Client) GemSet(ctx context.Context, prompt string, base int64) ([]string, error) {
	urls := make([]string, 0, GemSetSize)
	for i := 0; i < GemSetSize; i++ {
		img, err := c.Asset(ctx, "gemSet", prompt, base+int64(i))
		if err != nil {
			return nil, fmt.Errorf("imagegen: gem %d of %d: %w", i+1, GemSetSize, err)
		}
		urls = append(urls, DataURL(img))
	}
	return urls, nil
}

// doRequest posts body and returns the response bytes.
func (c *Client) doRequest(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("imagegen: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: read response: %w", err)
	}
	c.logger.Debug("model call", "url", url, "status", resp.StatusCode, "bytes", len(respBody), "took", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if len(respBody) == 0 {
		return nil, ErrEmptyImage
	}
	return respBody, nil
}
