package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gamegen/internal/api"
	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/platform/tui"
)

var (
	flagAddr        string
	flagSSHAddr     string
	flagPreview     bool
	flagHostKey     string
	flagLive        bool
	flagLibrary     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GameGen HTTP API",
	Long: `Start the HTTP API used by the browser editor.

The server exposes the game catalog, asset generation, prompt parsing,
game export and best scores, and serves the game templates and public
files. With --ssh it also runs a terminal preview of the games over SSH.

Asset generation:
  - By default /api/generate-image answers from the pre-generated asset
    library; --live forwards prompts to the image model instead
  - /api/generate-asset always calls the image model

Catalog:
  - With --catalog (or paths.catalog_path) the catalog file is watched
    and reloaded on change

Examples:
  gamegen serve                          # Listen on the configured address
  gamegen serve --addr :8080             # Listen on port 8080
  gamegen serve --live                   # Generate images with the model
  gamegen serve --ssh :23234             # Also serve previews over SSH
  gamegen serve --preview                # SSH previews on preview.ssh_address

Users can connect to the preview with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH preview address (host:port); empty disables it")
	serveCmd.Flags().BoolVar(&flagPreview, "preview", false, "Serve SSH previews on the configured preview address")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if not specified)")
	serveCmd.Flags().BoolVar(&flagLive, "live", false, "Generate images with the model instead of the asset library")
	serveCmd.Flags().StringVar(&flagLibrary, "library", "", "Path to a pre-generated asset library YAML")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "SSH idle timeout in minutes (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Address = flagAddr
	}
	if flagLive {
		cfg.ImageAPI.Live = true
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	live, err := openLiveCatalog(cfg, logger)
	if err != nil {
		return err
	}
	defer live.Close()

	library, err := assets.LoadLibrary(flagLibrary)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := newImageClient(cfg, logger)
	if err != nil {
		return err
	}
	exporter, err := newExporter(cfg, live, store, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Catalog:        live,
		Library:        library,
		Images:         images,
		Parser:         newLLMClient(cfg, logger),
		Exporter:       exporter,
		Scores:         store,
		GamesDir:       cfg.Paths.GamesDir,
		PublicDir:      cfg.Paths.PublicDir,
		LiveImages:     cfg.ImageAPI.Live,
		BaseSeed:       cfg.ImageAPI.BaseSeed,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("starting HTTP server", "address", cfg.Server.Address, "live_images", cfg.ImageAPI.Live)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	sshAddr := flagSSHAddr
	if sshAddr == "" && flagPreview {
		sshAddr = cfg.Preview.SSHAddress
	}
	if sshAddr != "" {
		sshCfg := tui.DefaultSSHServerConfig()
		sshCfg.Address = sshAddr
		sshCfg.HostKeyPath = cfg.Preview.HostKeyPath
		if flagHostKey != "" {
			sshCfg.HostKeyPath = flagHostKey
		}
		if cfg.Preview.IdleTimeout > 0 {
			sshCfg.IdleTimeout = cfg.Preview.IdleTimeout
		}
		if flagIdleTimeout > 0 {
			sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
		}

		sshServer, err := tui.NewSSHServer(sshCfg, live, store, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := sshServer.ListenAndServe(ctx); err != nil {
				errc <- fmt.Errorf("ssh server: %w", err)
			}
		}()
	}

	select {
	case err := <-errc:
		stop()
		shutdown(httpServer, logger)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdown(httpServer, logger)
	return nil
}

// openLiveCatalog watches the configured catalog file, or wraps the
// searched catalog when none is configured.
func openLiveCatalog(cfg config.Config, logger *log.Logger) (*catalog.Live, error) {
	if cfg.Paths.CatalogPath != "" {
		return catalog.Watch(cfg.Paths.CatalogPath, logger.WithPrefix("catalog"))
	}
	cat, err := catalog.Load("")
	if err != nil {
		return nil, err
	}
	return catalog.Static(cat), nil
}

func shutdown(srv *http.Server, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}
