package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/platform/tui"
	"github.com/vovakirdan/gamegen/internal/registry"
)

var previewFlags sessionFlags

var previewCmd = &cobra.Command{
	Use:   "preview <game>",
	Short: "Preview a game in the terminal",
	Long: `Run a game's runtime in the terminal next to its editor panel.

The panel lists the game's settings. Changing a setting is sent to the
running game exactly as the browser editor does it.

Controls:
  Arrows/WASD   - Move
  Space         - Tap / flap / jump
  1-9           - Whack a hole
  Tab/Shift+Tab - Select a setting
  [ / ]         - Decrease / increase the selected setting
  Z / X / C     - Simple / medium / hard preset
  P             - Pause
  Enter/R       - Restart
  Ctrl+S        - Screenshot
  ?             - Help
  Q/Ctrl+C      - Quit

Examples:
  gamegen preview flappy-bird
  gamegen preview flappy-bird --difficulty hard
  gamegen preview speed-runner --set speed=8
  gamegen preview crossy-road --asset character=/assets/chick.png`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewFlags.difficulty, "difficulty", "", "Difficulty preset: simple, medium, hard")
	previewCmd.Flags().StringArrayVar(&previewFlags.sets, "set", nil, "Setting as key=value (repeatable)")
	previewCmd.Flags().StringArrayVar(&previewFlags.assets, "asset", nil, "Asset as type=url (repeatable)")
}

func runPreview(_ *cobra.Command, args []string) error {
	gameID := args[0]

	if !registry.Exists(gameID) {
		return fmt.Errorf("no terminal preview for %q; run 'gamegen list' to see available games", gameID)
	}

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

	// The preview takes over the terminal; only warnings reach stderr.
	if logger.GetLevel() < log.WarnLevel {
		logger.SetLevel(log.WarnLevel)
	}
	session, err := newEditorSession(gameCfg, previewFlags, logger)
	if err != nil {
		return err
	}

	game, err := registry.Create(gameID)
	if err != nil {
		return err
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rc := core.RuntimeConfig{
		ScreenW: width,
		ScreenH: height,
		TickMs:  core.DefaultTickMs,
		Seed:    seed,
	}

	var scores tui.ScoreSaver
	store, err := openStore(cfg)
	if err != nil {
		logger.Warn("scores will not be saved", "error", err)
	} else {
		defer store.Close()
		scores = store
	}

	return tui.Run(game, session, scores, rc)
}
