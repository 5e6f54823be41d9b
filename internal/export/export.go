// Package export packages a customized copy of a game as a ZIP archive.
//
// An export copies the game's template tree into a scratch directory of
// its own, writes the requested assets next to it, injects the settings
// into the main script and streams the tree as a ZIP. Nothing is written
// to the destination until the tree is complete, so a failed export never
// produces a partial archive.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/storage"
)

// CatalogSource yields the current game catalog.
type CatalogSource interface {
	Current() catalog.Catalog
}

// Recorder stores finished exports.
type Recorder interface {
	RecordExport(rec storage.ExportRecord) (int64, error)
}

// Options configures an Exporter.
type Options struct {
	// GamesDir holds one template tree per game id.
	GamesDir string
	// PublicDir is the web root that non-game asset paths are resolved in.
	PublicDir string
	// ScratchDir is where per-export working trees are created. Defaults
	// to the system temp directory.
	ScratchDir string
	// Strategy is used when a request names none.
	Strategy Strategy
	Catalog  CatalogSource
	// History is optional.
	History Recorder
	Logger  *log.Logger
}

// Result describes a finished export.
type Result struct {
	ID         string   `json:"id"`
	FileName   string   `json:"fileName"`
	Strategy   Strategy `json:"strategy"`
	MainScript string   `json:"mainScript"`
	Files      int      `json:"files"`
	Bytes      int64    `json:"bytes"`
	// Unmatched lists the variables a rewrite could not find.
	Unmatched []string `json:"unmatched,omitempty"`
	// Assets are the request's assets with paths rewritten to ZIP paths.
	Assets map[string]protocol.AssetValue `json:"assets"`
}

// Exporter builds game archives.
type Exporter struct {
	opts   Options
	logger *log.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyPrelude
	}
	logger := opts.Logger
	if logger == nil {
		logger = protocol.Discard()
	}
	return &Exporter{opts: opts, logger: logger.WithPrefix("export")}
}

// Export builds the archive for req and writes it to w.
func (e *Exporter) Export(ctx context.Context, req Request, w io.Writer) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	game, err := e.opts.Catalog.Current().MustGame(req.GameID)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	for assetType := range req.AIAssetPaths {
		if _, ok := game.Asset(assetType); !ok {
			return Result{}, fmt.Errorf("%w: unknown asset type %q for %s", ErrInvalidRequest, assetType, game.ID)
		}
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = e.opts.Strategy
	}

	id := uuid.NewString()
	logger := e.logger.With("export", id, "game", game.ID, "session", req.UserSessionID)

	src := filepath.Join(e.opts.GamesDir, game.ID)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, src)
	}

	if err := os.MkdirAll(e.opts.ScratchDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("export: create scratch dir: %w", err)
	}
	dir := filepath.Join(e.opts.ScratchDir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("export: create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("scratch cleanup failed", "dir", dir, "error", err)
		}
	}()

	if err := copyTree(ctx, src, dir); err != nil {
		return Result{}, err
	}

	scripts := existingScripts(dir, game.Export.MainScripts)
	if len(scripts) == 0 {
		return Result{}, fmt.Errorf("%w: no main script for %s", ErrTemplateNotFound, game.ID)
	}

	m := materializer{
		dir:       dir,
		publicDir: e.opts.PublicDir,
		game:      game,
		logger:    logger,
	}
	assets := make(map[string]protocol.AssetValue, len(req.AIAssetPaths))
	for _, assetType := range sortedAssetTypes(req.AIAssetPaths) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		v := req.AIAssetPaths[assetType]
		if v.IsZero() {
			continue
		}
		placed, err := m.place(assetType, v)
		if err != nil {
			return Result{}, err
		}
		assets[assetType] = placed
	}

	res := Result{
		ID:         id,
		FileName:   req.FileName(),
		Strategy:   strategy,
		MainScript: scripts[0],
		Assets:     assets,
	}

	switch strategy {
	case StrategyRewrite:
		unmatched, err := rewriteScripts(dir, scripts, game.Export, req.GameParameters, assets)
		if err != nil {
			return Result{}, err
		}
		for _, name := range unmatched {
			logger.Warn("variable not found in main script", "variable", name)
		}
		res.Unmatched = unmatched
	default:
		if err := writePrelude(filepath.Join(dir, filepath.FromSlash(scripts[0])), req.GameParameters, assets); err != nil {
			return Result{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	files, n, err := writeZip(ctx, dir, w)
	if err != nil {
		return Result{}, err
	}
	res.Files = files
	res.Bytes = n

	logger.Info("export finished", "files", files, "bytes", n, "strategy", strategy)

	if e.opts.History != nil {
		_, err := e.opts.History.RecordExport(storage.ExportRecord{
			ExportID:      id,
			GameID:        game.ID,
			UserSessionID: req.UserSessionID,
			Strategy:      string(strategy),
			Files:         files,
			Bytes:         n,
			Unmatched:     res.Unmatched,
		})
		if err != nil {
			logger.Warn("export history not recorded", "error", err)
		}
	}

	return res, nil
}

func existingScripts(dir string, candidates []string) []string {
	var out []string
	for _, rel := range candidates {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		if err == nil && info.Mode().IsRegular() {
			out = append(out, rel)
		}
	}
	return out
}

func sortedAssetTypes(m map[string]protocol.AssetValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
