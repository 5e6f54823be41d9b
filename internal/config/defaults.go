package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/gamegen.yaml
var defaultYAML []byte

// DefaultConfig returns the hardcoded configuration used when the embedded
// YAML cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:        ":5000",
			RequestTimeout: 2 * time.Minute,
			CORSOrigins:    []string{"*"},
			LogLevel:       "info",
		},
		Paths: PathsConfig{
			GamesDir:   "./public/games",
			PublicDir:  "./public",
			ScratchDir: "~/.gamegen/scratch",
			DBPath:     "~/.gamegen/gamegen.db",
		},
		ImageAPI: ImageAPIConfig{
			URL:                  "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0",
			BackgroundRemovalURL: "https://api-inference.huggingface.co/models/briaai/RMBG-1.4",
			Timeout:              60 * time.Second,
			BaseSeed:             42,
		},
		LLM: LLMConfig{
			URL:     "https://api-inference.huggingface.co/v1/chat/completions",
			Model:   "mistralai/Mistral-7B-Instruct-v0.3",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Dir: "~/.gamegen/cache",
			TTL: time.Hour,
		},
		Export: ExportConfig{
			Strategy: "prelude",
		},
		Preview: PreviewConfig{
			SSHAddress:  ":23234",
			IdleTimeout: 30 * time.Minute,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
