package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the user and local
// config directories.
const FileName = "gamegen.yaml"

// Environment variables that override secrets and the cache backend.
const (
	EnvImageToken = "GAMEGEN_HF_TOKEN"
	EnvLLMToken   = "GAMEGEN_LLM_TOKEN"
	EnvRedisAddr  = "GAMEGEN_REDIS_ADDR"
)

// Load loads the GameGen configuration.
// Search order: customPath -> ~/.gamegen/configs/gamegen.yaml -> ./configs/gamegen.yaml -> embedded default
// Values missing from a file keep their DefaultConfig value. Environment
// overrides are applied last.
func Load(customPath string) (Config, error) {
	cfg := DefaultConfig()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	if userCfgPath := UserConfigPath(FileName); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				applyEnv(&cfg)
				return cfg, nil
			}
			cfg = DefaultConfig()
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", FileName)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			applyEnv(&cfg)
			return cfg, nil
		}
		cfg = DefaultConfig()
	}

	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		cfg = DefaultConfig() // Fallback to hardcoded if embed fails
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvImageToken); v != "" {
		cfg.ImageAPI.Token = v
	}
	if v := os.Getenv(EnvLLMToken); v != "" {
		cfg.LLM.Token = v
	} else if cfg.LLM.Token == "" {
		cfg.LLM.Token = cfg.ImageAPI.Token
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if cfg.Export.Strategy == "" {
		cfg.Export.Strategy = "prelude"
	}
}

// UserConfigPath returns ~/.gamegen/configs/<filename>, or empty if the home
// directory is unavailable.
func UserConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gamegen", "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
