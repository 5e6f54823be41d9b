// Package api serves the GameGen HTTP API: game catalog, asset
// generation, prompt parsing, export and best scores, plus the static game
// templates and public files.
package api

import (
	"context"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/export"
	"github.com/vovakirdan/gamegen/internal/llm"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/storage"
)

// ImageGenerator produces images for generate-asset.
type ImageGenerator interface {
	Asset(ctx context.Context, assetType, prompt string, seed int64) ([]byte, error)
	GemSet(ctx context.Context, prompt string, base int64) ([]string, error)
}

// PromptParser breaks a description down into image prompts.
type PromptParser interface {
	Parse(ctx context.Context, prompt, gameID string) (llm.Result, error)
}

// Exporter builds game archives.
type Exporter interface {
	Export(ctx context.Context, req export.Request, w io.Writer) (export.Result, error)
}

// ScoreStore persists best scores and reads export history.
type ScoreStore interface {
	SaveScore(gameID, scoreKey string, score int) (int64, error)
	TopScores(gameID string, limit int) ([]storage.ScoreEntry, error)
	HighScore(gameID string) (int, error)
	RecentExports(gameID string, limit int) ([]storage.ExportRecord, error)
}

// Options wires the server's dependencies. Images, Parser and Scores are
// optional; their routes answer with an error when unset.
type Options struct {
	Catalog  export.CatalogSource
	Library  *assets.Library
	Images   ImageGenerator
	Parser   PromptParser
	Exporter Exporter
	Scores   ScoreStore

	GamesDir  string
	PublicDir string

	// LiveImages routes generate-image to Images instead of Library.
	LiveImages bool
	// BaseSeed is the first seed of every generation.
	BaseSeed int64

	RequestTimeout time.Duration
	CORSOrigins    []string
	Logger         *log.Logger
}

// Server handles HTTP requests
type Server struct {
	opts      Options
	logger    *log.Logger
	startTime time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = protocol.Discard()
	}
	return &Server{
		opts:      opts,
		logger:    logger.WithPrefix("api"),
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Get("/games/{gameId}", s.handleGetGame)

		r.Post("/generate-image", s.handleGenerateImage)
		r.Post("/generate-asset", s.handleGenerateAsset)
		r.Post("/generate-llm-text", s.handleGenerateLLMText)

		r.Post("/export/{gameId}", s.handleExport)
		r.Get("/exports", s.handleListExports)

		r.Get("/scores/{gameId}", s.handleGetScores)
		r.Post("/scores/{gameId}", s.handlePostScore)
	})

	if s.opts.GamesDir != "" {
		r.Handle("/games/*", http.StripPrefix("/games/", staticFiles(s.opts.GamesDir)))
	}
	if s.opts.PublicDir != "" {
		r.Handle("/*", staticFiles(s.opts.PublicDir))
	}

	return r
}

// staticFiles serves root. Explicit index.html paths are answered in place
// instead of being redirected to their directory; template paths name them.
func staticFiles(root string) http.Handler {
	dir := http.Dir(root)
	files := http.FileServer(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) != "index.html" {
			files.ServeHTTP(w, r)
			return
		}
		f, err := dir.Open(path.Clean("/" + r.URL.Path))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
