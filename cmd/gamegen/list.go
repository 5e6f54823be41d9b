package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gamegen/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all editable games",
	Long:  `Shows the games in the catalog with their settings and asset slots.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	if len(cat.Games) == 0 {
		fmt.Println("No games available.")
		return nil
	}

	fmt.Println("Editable games:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, g := range cat.Games {
		if len(g.ID) > maxIDLen {
			maxIDLen = len(g.ID)
		}
	}

	fmt.Printf("  %-*s  %-16s  %-8s  %s\n", maxIDLen, "ID", "Title", "Preview", "Settings / Assets")
	fmt.Printf("  %-*s  %-16s  %-8s  %s\n", maxIDLen, "--", "-----", "-------", "-----------------")

	for _, g := range cat.Games {
		preview := "no"
		if registry.Exists(g.ID) {
			preview = "yes"
		}
		keys := make([]string, 0, len(g.Parameters))
		for _, p := range g.Parameters {
			keys = append(keys, p.Key)
		}
		types := make([]string, 0, len(g.AIAssets))
		for _, a := range g.AIAssets {
			types = append(types, a.Type)
		}
		fmt.Printf("  %-*s  %-16s  %-8s  %v / %v\n", maxIDLen, g.ID, g.Title, preview, keys, types)
	}

	fmt.Println()
	fmt.Println("Run 'gamegen preview <id>' to play a game in the terminal.")
	return nil
}
