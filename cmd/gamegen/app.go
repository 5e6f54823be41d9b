package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/export"
	"github.com/vovakirdan/gamegen/internal/imagegen"
	"github.com/vovakirdan/gamegen/internal/llm"
	"github.com/vovakirdan/gamegen/internal/storage"
)

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagCatalog != "" {
		cfg.Paths.CatalogPath = flagCatalog
	}
	if flagDBPath != "" {
		cfg.Paths.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Server.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// newLogger creates the process logger at the configured level.
func newLogger(cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gamegen",
	})
	if cfg.Server.LogLevel != "" {
		level, err := log.ParseLevel(cfg.Server.LogLevel)
		if err != nil {
			logger.Warn("unknown log level, using info", "level", cfg.Server.LogLevel)
		} else {
			logger.SetLevel(level)
		}
	}
	return logger
}

// loadCatalog loads the catalog override if one is configured, otherwise
// the usual search order.
func loadCatalog(cfg config.Config) (catalog.Catalog, error) {
	if cfg.Paths.CatalogPath != "" {
		return catalog.LoadFile(cfg.Paths.CatalogPath)
	}
	return catalog.Load("")
}

// openStore opens the scores and export history database.
func openStore(cfg config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.Paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Paths.DBPath, err)
	}
	return store, nil
}

// newImageClient builds the image generation client with its cache.
func newImageClient(cfg config.Config, logger *log.Logger) (*imagegen.Client, error) {
	cache, err := assets.NewStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	return imagegen.NewClient(imagegen.Config{
		URL:                  cfg.ImageAPI.URL,
		BackgroundRemovalURL: cfg.ImageAPI.BackgroundRemovalURL,
		Token:                cfg.ImageAPI.Token,
		Timeout:              cfg.ImageAPI.Timeout,
		Cache:                cache,
		Logger:               logger,
	}), nil
}

// newLLMClient builds the prompt parsing client.
func newLLMClient(cfg config.Config, logger *log.Logger) *llm.Client {
	return llm.NewClient(llm.Config{
		URL:     cfg.LLM.URL,
		Token:   cfg.LLM.Token,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Logger:  logger,
	})
}

// newExporter builds the export pipeline. history may be nil.
func newExporter(cfg config.Config, cat export.CatalogSource, history export.Recorder, logger *log.Logger) (*export.Exporter, error) {
	strategy, err := export.ParseStrategy(cfg.Export.Strategy)
	if err != nil {
		return nil, err
	}
	scratch, err := config.ExpandHome(cfg.Paths.ScratchDir)
	if err != nil {
		return nil, err
	}
	if scratch != "" {
		if err := os.MkdirAll(scratch, 0o755); err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
	}
	return export.New(export.Options{
		GamesDir:   cfg.Paths.GamesDir,
		PublicDir:  cfg.Paths.PublicDir,
		ScratchDir: scratch,
		Strategy:   strategy,
		Catalog:    cat,
		History:    history,
		Logger:     logger,
	}), nil
}
