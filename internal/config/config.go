// Package config provides YAML-based configuration for the GameGen server
// and the difficulty level helpers shared by the game runtimes.
package config

import "time"

// Config is the full GameGen configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Paths    PathsConfig    `yaml:"paths"`
	ImageAPI ImageAPIConfig `yaml:"image_api"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Export   ExportConfig   `yaml:"export"`
	Preview  PreviewConfig  `yaml:"preview"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	LogLevel       string        `yaml:"log_level"`
}

// PathsConfig locates templates, public files and on-disk state.
type PathsConfig struct {
	GamesDir    string `yaml:"games_dir"`   // One directory per game id
	PublicDir   string `yaml:"public_dir"`  // Root for /assets/... style paths
	ScratchDir  string `yaml:"scratch_dir"` // Parent of per-export work dirs
	DBPath      string `yaml:"db_path"`
	CatalogPath string `yaml:"catalog_path"` // Optional catalog override, hot reloaded
}

// ImageAPIConfig configures the text-to-image and background removal calls.
type ImageAPIConfig struct {
	URL                  string        `yaml:"url"`
	BackgroundRemovalURL string        `yaml:"background_removal_url"`
	Token                string        `yaml:"token"`
	Timeout              time.Duration `yaml:"timeout"`
	// Live routes /api/generate-image to the real model instead of the
	// pre-generated asset map.
	Live bool `yaml:"live"`
	// BaseSeed is the first seed of a gem set batch.
	BaseSeed int64 `yaml:"base_seed"`
}

// LLMConfig configures the prompt parsing model.
type LLMConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects where generated images are cached.
// RedisAddr wins over Dir when both are set.
type CacheConfig struct {
	Dir       string        `yaml:"dir"`
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// ExportConfig controls the export pipeline.
type ExportConfig struct {
	Strategy string `yaml:"strategy"` // "prelude" or "rewrite"
}

// PreviewConfig configures the SSH preview server.
type PreviewConfig struct {
	SSHAddress  string        `yaml:"ssh_address"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}
