package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/export"
)

var (
	exportFlags   sessionFlags
	flagRequest   string
	flagStrategy  string
	flagOutput    string
	flagSessionID string
	flagNoHistory bool
)

var exportCmd = &cobra.Command{
	Use:   "export <game>",
	Short: "Export a customized game as a ZIP",
	Long: `Build a standalone ZIP of a game with the given settings and assets.

The request is either read from a JSON file in the editor's export format
(--request) or assembled from the preset, --set and --asset flags.

Strategies:
  prelude - Prepend the settings and assets to the main script (default)
  rewrite - Replace the initial values of the game's variables

Examples:
  gamegen export flappy-bird --difficulty hard
  gamegen export flappy-bird --set gravity=0.3 --asset character=/assets/bird.png
  gamegen export speed-runner --request ./request.json -o runner.zip
  gamegen export crossy-road --strategy rewrite`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.difficulty, "difficulty", "", "Difficulty preset: simple, medium, hard")
	exportCmd.Flags().StringArrayVar(&exportFlags.sets, "set", nil, "Setting as key=value (repeatable)")
	exportCmd.Flags().StringArrayVar(&exportFlags.assets, "asset", nil, "Asset as type=url (repeatable)")
	exportCmd.Flags().StringVar(&flagRequest, "request", "", "Path to an export request JSON file")
	exportCmd.Flags().StringVar(&flagStrategy, "strategy", "", "Export strategy: prelude, rewrite (default from config)")
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default <game>_custom_game.zip)")
	exportCmd.Flags().StringVar(&flagSessionID, "session", "", "User session id recorded with the export (default random)")
	exportCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record the export in the database")
}

func runExport(cmd *cobra.Command, args []string) error {
	gameID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	gameCfg, err := cat.MustGame(gameID)
	if err != nil {
		return err
	}

	var req export.Request
	if flagRequest != "" {
		req, err = readRequest(flagRequest)
		if err != nil {
			return err
		}
		req.GameID = gameID
	} else {
		session, err := newEditorSession(gameCfg, exportFlags, logger)
		if err != nil {
			return err
		}
		req = session.ExportRequest(flagSessionID)
	}
	if req.UserSessionID == "" {
		req.UserSessionID = uuid.NewString()
	}
	if flagStrategy != "" {
		strategy, err := export.ParseStrategy(flagStrategy)
		if err != nil {
			return err
		}
		req.Strategy = strategy
	}

	var history export.Recorder
	if !flagNoHistory {
		store, err := openStore(cfg)
		if err != nil {
			logger.Warn("export will not be recorded", "error", err)
		} else {
			defer store.Close()
			history = store
		}
	}

	exporter, err := newExporter(cfg, catalog.Static(cat), history, logger)
	if err != nil {
		return err
	}

	out := flagOutput
	if out == "" {
		out = req.FileName()
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	res, err := exporter.Export(cmd.Context(), req, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Exported %s to %s\n", gameCfg.Title, out)
	fmt.Fprintf(w, "  id:       %s\n", res.ID)
	fmt.Fprintf(w, "  strategy: %s\n", res.Strategy)
	fmt.Fprintf(w, "  script:   %s\n", res.MainScript)
	fmt.Fprintf(w, "  files:    %d (%d bytes)\n", res.Files, res.Bytes)
	for _, name := range res.Unmatched {
		fmt.Fprintf(w, "  warning:  %s not found in %s\n", name, res.MainScript)
	}
	return nil
}

// readRequest decodes an export request file.
func readRequest(path string) (export.Request, error) {
	var req export.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse request %s: %w", path, err)
	}
	return req, nil
}
