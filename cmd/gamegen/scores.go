package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagScoresLimit int

var scoresCmd = &cobra.Command{
	Use:   "scores <game>",
	Short: "Show best scores for a game",
	Long: `Display the top scores recorded for the specified game, from the
terminal preview and from the browser games via the API.

Examples:
  gamegen scores flappy-bird
  gamegen scores Whack-A-Mole --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of scores to show")
}

func runScores(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	game, err := cat.MustGame(args[0])
	if err != nil {
		return fmt.Errorf("%w (run 'gamegen list' to see available games)", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	scores, err := store.TopScores(game.ID, flagScoresLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Best Scores - %s (%s)\n", game.Title, game.ScoreKey)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'gamegen preview %s' to set the first score!\n", game.ID)
		return nil
	}

	fmt.Printf("  %-4s  %-10s  %s\n", "Rank", "Score", "Date")
	fmt.Printf("  %-4s  %-10s  %s\n", "----", "-----", "----")
	for i, entry := range scores {
		fmt.Printf("  %-4d  %-10d  %s\n", i+1, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	if best, err := store.HighScore(game.ID); err == nil {
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}
