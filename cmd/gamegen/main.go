// gamegen serves the GameGen editor backend: the game catalog, asset
// generation, prompt parsing and game export, plus a terminal preview of
// the game runtimes.
//
// Usage:
//
//	gamegen list                 - List editable games
//	gamegen serve                - Start the HTTP API (and optional SSH preview)
//	gamegen preview <game>       - Preview a game in the terminal
//	gamegen export <game>        - Export a customized game as a ZIP
//	gamegen generate <game> ...  - Resolve or generate one asset
//	gamegen describe <game> ...  - Parse a description into settings and prompts
//	gamegen scores <game>        - Show best scores for a game
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search ~/.gamegen/configs, ./configs)
//	--catalog <path>    - Game catalog override
//	--db <path>         - Database path
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import games to register them
	_ "github.com/vovakirdan/gamegen/internal/games/crossyroad"
	_ "github.com/vovakirdan/gamegen/internal/games/flappy"
	_ "github.com/vovakirdan/gamegen/internal/games/match3"
	_ "github.com/vovakirdan/gamegen/internal/games/speedrunner"
	_ "github.com/vovakirdan/gamegen/internal/games/whackamole"
)

var (
	// Global flags
	flagConfig   string
	flagCatalog  string
	flagDBPath   string
	flagLogLevel string
	flagSeed     int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gamegen",
	Short: "GameGen - customize and export HTML5 games",
	Long: `GameGen is the backend of a browser game editor. It serves five
editable HTML5 games, generates their images, turns free-form
descriptions into settings and exports customized games as ZIP files.

Available commands:
  list      - Show all editable games
  serve     - Start the HTTP API
  preview   - Play a game in the terminal with live settings
  export    - Export a customized game
  generate  - Resolve or generate an asset
  describe  - Turn a description into settings and prompts
  scores    - View best scores

Examples:
  gamegen list
  gamegen serve --addr :5000
  gamegen preview flappy-bird --difficulty hard
  gamegen export crossy-road --set speed=3 -o crossy.zip
  gamegen generate flappy-bird character "red bird"
  gamegen scores Whack-A-Mole`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to gamegen.yaml")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Path to a game catalog YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(scoresCmd)
}
